package astidvb

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const reportNone = "None"

// Report represents the outcome of an analysis
type Report struct {
	Bandwidth        Bandwidth        `json:"bandwidth"`
	CentreFrequency  *uint64          `json:"centre_frequency,omitempty"`
	CodeRate         CodeRate         `json:"code_rate"`
	Constellation    Constellation    `json:"constellation"`
	GuardInterval    GuardInterval    `json:"guard_interval"`
	NetworkID        *uint16          `json:"network_id"`
	NetworkName      *string          `json:"network_name"`
	PIDs             []PIDCount       `json:"pids"`
	Programs         []*ReportProgram `json:"programs"`
	TotalPackets     uint64           `json:"total_packets"`
	TransmissionMode TransmissionMode `json:"transmission_mode"`
}

// ReportProgram represents a program of a report
type ReportProgram struct {
	Bitrate         *float64 `json:"bitrate"`
	ElementaryPIDs  []uint16 `json:"elementary_pids"`
	Number          uint16   `json:"number"`
	PMTPID          uint16   `json:"pmt_pid"`
	ServiceName     *string  `json:"service_name"`
	ServiceProvider *string  `json:"service_provider"`
}

// NewReport creates a report out of a transport stream
func NewReport(s *TransportStream) (r *Report) {
	r = &Report{
		Bandwidth:        s.Bandwidth,
		CentreFrequency:  s.CentreFrequency,
		CodeRate:         s.CodeRate,
		Constellation:    s.Constellation,
		GuardInterval:    s.GuardInterval,
		NetworkID:        s.NetworkID,
		NetworkName:      s.NetworkName,
		PIDs:             s.PIDs(),
		TotalPackets:     s.TotalPacketCount(),
		TransmissionMode: s.TransmissionMode,
	}
	for _, p := range s.Programs() {
		r.Programs = append(r.Programs, &ReportProgram{
			Bitrate:         p.Bitrate,
			ElementaryPIDs:  p.ElementaryPIDs,
			Number:          p.Number,
			PMTPID:          p.PMTPID,
			ServiceName:     p.ServiceName,
			ServiceProvider: p.ServiceProvider,
		})
	}
	return
}

// WriteReport writes the text report of a successfully finalized transport stream
func WriteReport(w io.Writer, s *TransportStream) (err error) {
	// Check state
	if s.errFinalize != nil {
		err = errors.Wrap(s.errFinalize, "astidvb: transport stream failed to finalize")
		return
	} else if !s.IsFinalized() {
		err = errors.New("astidvb: transport stream is not finalized")
		return
	}
	r := NewReport(s)

	// Header
	if _, err = fmt.Fprintf(w, "Network name: %s\nNetwork ID: %s\nBandwidth: %s MHz\nConstellation: %s\nGuard interval: %s\nCode rate: %s\n\n",
		stringOrNone(r.NetworkName), uint16OrNone(r.NetworkID), r.Bandwidth, r.Constellation, r.GuardInterval, r.CodeRate); err != nil {
		err = errors.Wrap(err, "astidvb: writing header failed")
		return
	}

	// Programs
	for _, p := range r.Programs {
		if _, err = fmt.Fprintf(w, "0x%04x-%s-%s: %s Mbps\n", p.PMTPID, stringOrNone(p.ServiceProvider), stringOrNone(p.ServiceName), mbps(p.Bitrate)); err != nil {
			err = errors.Wrapf(err, "astidvb: writing program %d failed", p.Number)
			return
		}
	}
	return
}

// OutputPath returns the input path with its extension replaced by .txt
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".txt"
}

func stringOrNone(s *string) string {
	if s == nil {
		return reportNone
	}
	return *s
}

func uint16OrNone(v *uint16) string {
	if v == nil {
		return reportNone
	}
	return fmt.Sprintf("%d", *v)
}

func mbps(b *float64) string {
	if b == nil {
		return reportNone
	}
	return fmt.Sprintf("%.2f", *b/1e6)
}
