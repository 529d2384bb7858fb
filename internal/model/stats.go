package model

// DashboardCounts backs the admin dashboard.
type DashboardCounts struct {
	Doctors      int64 `db:"doctors" json:"doctors"`
	Patients     int64 `db:"patients" json:"patients"`
	Appointments int64 `db:"appointments" json:"appointments"`
}

// SpecializationCount is one bar of the doctors-by-specialization chart.
type SpecializationCount struct {
	Specialization string `db:"specialization" json:"specialization"`
	Count          int64  `db:"count" json:"count"`
}

// SpecializationStats is the chart payload, labels and values aligned by index.
type SpecializationStats struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}
