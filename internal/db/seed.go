package db

import "github.com/jonathan/company-registry/internal/types"

// SampleCompanies returns the demo fixture rows loaded by the seed command,
// for trying the API without a registry dump at hand.
func SampleCompanies() []*types.Company {
	rows := []struct {
		businessID   string
		name         string
		industry     string
		city         string
		companyType  string
		address      string
		registration string
	}{
		{"FI12345678", "Tech Solutions Oy", "Technology", "Helsinki", "Osakeyhtiö", "Mannerheimintie 1, Helsinki", "2020-01-15"},
		{"FI87654321", "Nordic Consulting Ab", "Consulting", "Stockholm", "Aktiebolag", "Kungsgatan 10, Stockholm", "2019-03-22"},
		{"FI11223344", "Green Energy Ltd", "Energy", "Tampere", "Osakeyhtiö", "Hämeenkatu 5, Tampere", "2021-06-10"},
		{"FI55667788", "Food Innovations Oy", "Food & Beverage", "Turku", "Osakeyhtiö", "Aurakatu 3, Turku", "2018-11-30"},
		{"FI99887766", "Digital Marketing Pro", "Marketing", "Oulu", "Osakeyhtiö", "Kirkkokatu 8, Oulu", "2022-02-14"},
		{"FI44556677", "Construction Masters", "Construction", "Espoo", "Osakeyhtiö", "Tapiontori 1, Espoo", "2017-09-05"},
		{"FI33445566", "Healthcare Solutions", "Healthcare", "Vantaa", "Osakeyhtiö", "Tikkurilantie 10, Vantaa", "2020-08-18"},
		{"FI22334455", "Logistics Express", "Logistics", "Lahti", "Osakeyhtiö", "Vesijärvenkatu 2, Lahti", "2019-12-03"},
		{"FI66778899", "Fashion Forward Oy", "Fashion", "Jyväskylä", "Osakeyhtiö", "Kauppakatu 15, Jyväskylä", "2021-04-27"},
		{"FI77889900", "Auto Services Ltd", "Automotive", "Kuopio", "Osakeyhtiö", "Puijonkatu 12, Kuopio", "2018-07-11"},
	}

	companies := make([]*types.Company, 0, len(rows))
	for _, r := range rows {
		companies = append(companies, &types.Company{
			BusinessID:       r.businessID,
			Name:             r.name,
			Industry:         &r.industry,
			City:             &r.city,
			CompanyType:      &r.companyType,
			Address:          &r.address,
			RegistrationDate: &r.registration,
		})
	}
	return companies
}
