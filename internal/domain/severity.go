package domain

// Severity index weights per casualty class and per unit involved.
const (
	weightFatality         = 30
	weightHospitalised     = 10
	weightMedicallyTreated = 5
	weightMinorInjury      = 1
	weightUnit             = 2
)

// SeverityIndex scores a crash from its casualty and unit counts. Higher is
// more severe. The score is non-decreasing in every count.
func SeverityIndex(c Casualties, u Units) int {
	return weightFatality*c.Fatality +
		weightHospitalised*c.Hospitalised +
		weightMedicallyTreated*c.MedicallyTreated +
		weightMinorInjury*c.MinorInjury +
		weightUnit*u.Total()
}
