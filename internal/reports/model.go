package reports

import "time"

// LogCategory separates the three tally blocks of a daily report.
type LogCategory string

const (
	LogManpower      LogCategory = "MANPOWER"
	LogSubcontractor LogCategory = "SUBCONTRACTOR"
	LogEquipment     LogCategory = "EQUIPMENT"
)

// Log is one day/night head count line, either for a staff type or a piece
// of equipment.
type Log struct {
	ID         int64       `json:"id"`
	ReportID   int64       `json:"-"`
	Category   LogCategory `json:"-"`
	Label      string      `json:"label"`
	DayCount   int         `json:"day_count"`
	NightCount int         `json:"night_count"`
}

// DailyReport is the site diary for one project day. Report numbers count up
// per project; one report per project per date.
type DailyReport struct {
	ID                   int64     `json:"id"`
	ProjectID            int64     `json:"project_id"`
	ReportNumber         int       `json:"report_number"`
	Date                 time.Time `json:"date"`
	ContractorName       string    `json:"contractor_name"`
	SubcontractorName    string    `json:"subcontractor_name"`
	ChronologicalAccount string    `json:"chronological_account"`
	ActivitiesForNextDay string    `json:"activities_for_next_day"`
	IssuesEncountered    string    `json:"issues_encountered"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	ManpowerLogs      []Log `json:"manpower_logs"`
	SubcontractorLogs []Log `json:"subcontractor_logs"`
	EquipmentLogs     []Log `json:"equipment_logs"`
}

func (r *DailyReport) allLogs() []Log {
	out := make([]Log, 0, len(r.ManpowerLogs)+len(r.SubcontractorLogs)+len(r.EquipmentLogs))
	for _, l := range r.ManpowerLogs {
		l.Category = LogManpower
		out = append(out, l)
	}
	for _, l := range r.SubcontractorLogs {
		l.Category = LogSubcontractor
		out = append(out, l)
	}
	for _, l := range r.EquipmentLogs {
		l.Category = LogEquipment
		out = append(out, l)
	}
	return out
}

func (r *DailyReport) attachLog(l Log) {
	switch l.Category {
	case LogManpower:
		r.ManpowerLogs = append(r.ManpowerLogs, l)
	case LogSubcontractor:
		r.SubcontractorLogs = append(r.SubcontractorLogs, l)
	case LogEquipment:
		r.EquipmentLogs = append(r.EquipmentLogs, l)
	}
}
