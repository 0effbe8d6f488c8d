package astidvb

import (
	"strconv"

	"github.com/pkg/errors"
)

// usefulBitrateReference is the 8 MHz QPSK reference bitrate the useful bitrate is derived from
// Link: https://www.etsi.org/deliver/etsi_en/300700_300799/300744/01.06.02_60/en_300744v010602p.pdf
const usefulBitrateReference = 54e6

// Bandwidth represents a channel bandwidth in MHz. 0 means unset
type Bandwidth uint8

func newBandwidth(code uint8) Bandwidth {
	switch code {
	case 0:
		return 8
	case 1:
		return 7
	case 2:
		return 6
	case 3:
		return 5
	}
	return 0
}

// IsSet returns whether the bandwidth has been signalled
func (b Bandwidth) IsSet() bool { return b > 0 }

func (b Bandwidth) String() string {
	if !b.IsSet() {
		return "None"
	}
	return strconv.Itoa(int(b))
}

func (b Bandwidth) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Constellation represents a modulation scheme
type Constellation uint8

// Constellations
const (
	ConstellationUnset Constellation = iota
	ConstellationQPSK
	Constellation16QAM
	Constellation64QAM
)

func newConstellation(code uint8) Constellation {
	switch code {
	case 0:
		return ConstellationQPSK
	case 1:
		return Constellation16QAM
	case 2:
		return Constellation64QAM
	}
	return ConstellationUnset
}

func (c Constellation) String() string {
	switch c {
	case ConstellationQPSK:
		return "QPSK"
	case Constellation16QAM:
		return "16-QAM"
	case Constellation64QAM:
		return "64-QAM"
	}
	return "None"
}

func (c Constellation) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// factor is the normalized efficiency of the constellation, not its number of bits per symbol
func (c Constellation) factor() float64 {
	switch c {
	case ConstellationQPSK:
		return 1. / 4
	case Constellation16QAM:
		return 1. / 2
	case Constellation64QAM:
		return 3. / 4
	}
	return 0
}

// CodeRate represents the inner FEC code rate of the high priority stream
type CodeRate uint8

// Code rates
const (
	CodeRateUnset CodeRate = iota
	CodeRate1_2
	CodeRate2_3
	CodeRate3_4
	CodeRate5_6
	CodeRate7_8
)

func newCodeRate(code uint8) CodeRate {
	if code > 4 {
		return CodeRateUnset
	}
	return CodeRate(code + 1)
}

func (c CodeRate) String() string {
	switch c {
	case CodeRate1_2:
		return "1/2"
	case CodeRate2_3:
		return "2/3"
	case CodeRate3_4:
		return "3/4"
	case CodeRate5_6:
		return "5/6"
	case CodeRate7_8:
		return "7/8"
	}
	return "None"
}

func (c CodeRate) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c CodeRate) fraction() float64 {
	switch c {
	case CodeRate1_2:
		return 1. / 2
	case CodeRate2_3:
		return 2. / 3
	case CodeRate3_4:
		return 3. / 4
	case CodeRate5_6:
		return 5. / 6
	case CodeRate7_8:
		return 7. / 8
	}
	return 0
}

// GuardInterval represents the guard interval as a fraction of the useful symbol duration
type GuardInterval uint8

// Guard intervals
const (
	GuardIntervalUnset GuardInterval = iota
	GuardInterval1_32
	GuardInterval1_16
	GuardInterval1_8
	GuardInterval1_4
)

func newGuardInterval(code uint8) GuardInterval {
	if code > 3 {
		return GuardIntervalUnset
	}
	return GuardInterval(code + 1)
}

func (g GuardInterval) String() string {
	switch g {
	case GuardInterval1_32:
		return "1/32"
	case GuardInterval1_16:
		return "1/16"
	case GuardInterval1_8:
		return "1/8"
	case GuardInterval1_4:
		return "1/4"
	}
	return "None"
}

func (g GuardInterval) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// efficiency is the share of the symbol duration left once the guard interval is removed
func (g GuardInterval) efficiency() float64 {
	switch g {
	case GuardInterval1_32:
		return 32. / 33
	case GuardInterval1_16:
		return 16. / 17
	case GuardInterval1_8:
		return 8. / 9
	case GuardInterval1_4:
		return 4. / 5
	}
	return 0
}

// TransmissionMode represents the number of carriers
type TransmissionMode uint8

// Transmission modes
const (
	TransmissionModeUnset TransmissionMode = iota
	TransmissionMode2k
	TransmissionMode8k
	TransmissionMode4k
)

func newTransmissionMode(code uint8) TransmissionMode {
	if code > 2 {
		return TransmissionModeUnset
	}
	return TransmissionMode(code + 1)
}

func (m TransmissionMode) String() string {
	switch m {
	case TransmissionMode2k:
		return "2k"
	case TransmissionMode8k:
		return "8k"
	case TransmissionMode4k:
		return "4k"
	}
	return "None"
}

func (m TransmissionMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// TransmissionParameters are the terrestrial parameters the useful bitrate depends on
type TransmissionParameters struct {
	Bandwidth     Bandwidth     `json:"bandwidth"`
	CodeRate      CodeRate      `json:"code_rate"`
	Constellation Constellation `json:"constellation"`
	GuardInterval GuardInterval `json:"guard_interval"`
}

// update sets the parameters whose code in the terrestrial delivery system descriptor is known
// Reserved codes leave the previous value untouched
func (p *TransmissionParameters) update(d *DescriptorTerrestrialDeliverySystem) {
	if v := newBandwidth(d.Bandwidth); v.IsSet() {
		p.Bandwidth = v
	}
	if v := newCodeRate(d.CodeRateHPStream); v != CodeRateUnset {
		p.CodeRate = v
	}
	if v := newConstellation(d.Constellation); v != ConstellationUnset {
		p.Constellation = v
	}
	if v := newGuardInterval(d.GuardInterval); v != GuardIntervalUnset {
		p.GuardInterval = v
	}
}

// IsComplete returns whether every parameter is set
func (p TransmissionParameters) IsComplete() bool {
	return p.Bandwidth.IsSet() && p.CodeRate != CodeRateUnset && p.Constellation != ConstellationUnset && p.GuardInterval != GuardIntervalUnset
}

// UsefulBitrate returns the bitrate in bits per second available to the transport stream
func (p TransmissionParameters) UsefulBitrate() (b float64, err error) {
	if !p.IsComplete() {
		err = errors.Wrapf(ErrMissingTransmissionParameters, "astidvb: bandwidth %s, constellation %s, code rate %s, guard interval %s", p.Bandwidth, p.Constellation, p.CodeRate, p.GuardInterval)
		return
	}
	b = usefulBitrateReference * (float64(MpegTsPacketSize) / float64(MpegTsRSPacketSize))
	b = b * (float64(p.Bandwidth) / 8)
	b = b * p.Constellation.factor()
	b = b * p.CodeRate.fraction()
	b = b * p.GuardInterval.efficiency()
	return
}
