package clinicinfo

type Hours struct {
	Weekday  string `json:"weekday"`
	Weekend  string `json:"weekend"`
	Holidays string `json:"holidays"`
}

type Doctor struct {
	Name                 string   `json:"name"`
	Specialty            string   `json:"specialty"`
	Experience           string   `json:"experience"`
	Languages            []string `json:"languages"`
	AcceptingNewPatients bool     `json:"accepting_new_patients"`
}

type Location struct {
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Parking       string `json:"parking"`
	Accessibility string `json:"accessibility"`
}

type Contact struct {
	Phone     string `json:"phone"`
	Fax       string `json:"fax"`
	Email     string `json:"email"`
	Emergency string `json:"emergency"`
}

// Directory is the static clinic information served by Lookup.
type Directory struct {
	Name      string   `json:"name"`
	Hours     Hours    `json:"hours"`
	Insurance []string `json:"insurance"`
	Doctors   []Doctor `json:"doctors"`
	Services  []string `json:"services"`
	Location  Location `json:"location"`
	Contact   Contact  `json:"contact"`
}

func DefaultDirectory() *Directory {
	return &Directory{
		Name: "Downtown Medical Clinic",
		Hours: Hours{
			Weekday:  "Monday - Friday: 8:00 AM - 6:00 PM",
			Weekend:  "Saturday: 9:00 AM - 2:00 PM, Sunday: Closed",
			Holidays: "Closed on major holidays",
		},
		Insurance: []string{
			"Blue Cross Blue Shield",
			"Aetna",
			"UnitedHealthcare",
			"Cigna",
			"Medicare",
			"Medicaid",
		},
		Doctors: []Doctor{
			{
				Name:                 "Dr. Sarah Smith",
				Specialty:            "Cardiology",
				Experience:           "15 years",
				Languages:            []string{"English", "Spanish"},
				AcceptingNewPatients: true,
			},
			{
				Name:                 "Dr. John Chen",
				Specialty:            "Pediatrics",
				Experience:           "12 years",
				Languages:            []string{"English", "Mandarin"},
				AcceptingNewPatients: true,
			},
			{
				Name:                 "Dr. Maria Garcia",
				Specialty:            "Family Medicine",
				Experience:           "20 years",
				Languages:            []string{"English", "Spanish", "Portuguese"},
				AcceptingNewPatients: true,
			},
			{
				Name:                 "Dr. Ahmed Hassan",
				Specialty:            "Internal Medicine",
				Experience:           "8 years",
				Languages:            []string{"English", "Arabic"},
				AcceptingNewPatients: false,
			},
		},
		Services: []string{
			"Primary Care",
			"Cardiology Consultations",
			"Pediatric Care",
			"Annual Physical Exams",
			"Lab Work & Blood Tests",
			"Vaccinations & Immunizations",
			"Chronic Disease Management",
			"Preventive Care",
			"Minor Procedures",
		},
		Location: Location{
			Address:       "123 Medical Plaza, Suite 400",
			City:          "Downtown",
			State:         "CA",
			Zip:           "90001",
			Parking:       "Free parking in building garage",
			Accessibility: "Wheelchair accessible, elevator available",
		},
		Contact: Contact{
			Phone:     "(555) 123-0123",
			Fax:       "(555) 123-0124",
			Email:     "info@clinic.example.com",
			Emergency: "Call 911 or go to nearest ER",
		},
	}
}
