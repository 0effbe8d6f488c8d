package astidvb

// PIDs
const (
	PIDPAT  = 0x0    // Program Association Table (PAT) contains a directory listing of all Program Map Tables.
	PIDNIT  = 0x10   // Network Information Table (NIT) carries the network name and the delivery system parameters.
	PIDSDT  = 0x11   // Service Description Table (SDT) carries the service names and providers.
	PIDNull = 0x1fff // Null Packet (used for fixed bandwidth padding)
)

// Data represents one parsed table
// Only one of PAT, PMT, SDT or NIT is set
type Data struct {
	NIT *NITData
	PAT *PATData
	PID uint16
	PMT *PMTData
	SDT *SDTData
}

// DataHandler is called with every table folded into the transport stream
type DataHandler func(d *Data)

// newData wraps a parsed section into a Data
func newData(pid uint16, s *PSISection) *Data {
	return &Data{
		NIT: s.Data.NIT,
		PAT: s.Data.PAT,
		PID: pid,
		PMT: s.Data.PMT,
		SDT: s.Data.SDT,
	}
}
