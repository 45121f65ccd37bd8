package domain

// WebhookPayload is the document a trusted upstream posts to publish a
// patient record.
type WebhookPayload struct {
	ShareID   string      `json:"shareId"`
	Source    string      `json:"source"`
	Signature string      `json:"signature"`
	Data      PatientData `json:"data"`
}

// PatientData is the patient record schema. Every ingestion validates
// against it; there is no opt-out.
type PatientData struct {
	Personal  PersonalInfo  `json:"personal"`
	Medical   MedicalInfo   `json:"medical"`
	Emergency EmergencyInfo `json:"emergency"`
}

type PersonalInfo struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DateOfBirth string  `json:"dateOfBirth"`
	Gender      string  `json:"gender"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email,omitempty"`
	Address     Address `json:"address"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type MedicalInfo struct {
	PatientID   string       `json:"patientId"`
	BloodType   string       `json:"bloodType"`
	Allergies   []string     `json:"allergies"`
	Medications []Medication `json:"medications"`
	Conditions  []string     `json:"conditions"`
	LastVisit   string       `json:"lastVisit"`
	Notes       string       `json:"notes,omitempty"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

type EmergencyInfo struct {
	PrimaryContact   Contact  `json:"primaryContact"`
	SecondaryContact *Contact `json:"secondaryContact,omitempty"`
}

type Contact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}
