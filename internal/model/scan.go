package model

type Severity string

const (
	SevCritical Severity = "CRITICAL"
	SevHigh     Severity = "HIGH"
	SevMedium   Severity = "MEDIUM"
	SevLow      Severity = "LOW"
	SevUnknown  Severity = "UNKNOWN"
)

// CanonicalSeverities are always present in a summary, even at count zero.
// Labels outside this set are still counted when a report carries them.
var CanonicalSeverities = []Severity{SevCritical, SevHigh, SevMedium, SevLow, SevUnknown}

// SeverityCounts maps a normalized severity label to the number of
// vulnerabilities reported at that level.
type SeverityCounts map[string]int

// ScanRecord is one persisted scan. Records are append-only: they are
// written once by a successful scan and never updated or deleted.
type ScanRecord struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Image     string `gorm:"column:image;not null" json:"image"`
	CreatedAt string `gorm:"column:created_at;not null" json:"created_at"`
	Report    string `gorm:"column:report;not null" json:"-"`
}

func (ScanRecord) TableName() string {
	return "scans"
}
