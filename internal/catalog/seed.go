package catalog

// DefaultDrafts returns the initial festival set installed on first run,
// when the durable store has never been written.
func DefaultDrafts() []Draft {
	return []Draft{
		{
			Name:              "Sinulog Festival",
			Location:          "Cebu City",
			Month:             "January",
			Description:       "Grand parade honoring the Santo Niño with street dancing and drums.",
			Category:          CategoryReligious,
			ExpectedAttendees: 2000000,
			Images:            []string{"https://res.cloudinary.com/fiesta/image/upload/seed/sinulog.jpg"},
		},
		{
			Name:              "Panagbenga Flower Festival",
			Location:          "Baguio City",
			Month:             "February",
			Description:       "Month-long celebration of the blooming season with flower floats.",
			Category:          CategoryNature,
			ExpectedAttendees: 1500000,
			Images:            []string{"https://res.cloudinary.com/fiesta/image/upload/seed/panagbenga.jpg"},
		},
		{
			Name:              "MassKara Festival",
			Location:          "Bacolod City",
			Month:             "October",
			Description:       "Smiling masks and street dance battles in the City of Smiles.",
			Category:          CategoryCultural,
			ExpectedAttendees: 500000,
			Images:            []string{"https://res.cloudinary.com/fiesta/image/upload/seed/masskara.jpg"},
		},
		{
			Name:              "Ati-Atihan Festival",
			Location:          "Kalibo, Aklan",
			Month:             "January",
			Description:       "The mother of Philippine festivals, with tribal drum parades.",
			Category:          CategoryReligious,
			ExpectedAttendees: 1000000,
			Images:            []string{"https://res.cloudinary.com/fiesta/image/upload/seed/ati-atihan.jpg"},
		},
		{
			Name:              "Kadayawan Festival",
			Location:          "Davao City",
			Month:             "August",
			Description:       "Thanksgiving for the bountiful harvest and indigenous heritage.",
			Category:          CategoryHistorical,
			ExpectedAttendees: 800000,
			Images:            []string{"https://res.cloudinary.com/fiesta/image/upload/seed/kadayawan.jpg"},
		},
	}
}

// SeedIfEmpty installs the default festival set on first run only: a store
// restored from an existing blob is never reseeded, so a catalog the
// administrator emptied stays empty across restarts. It reports how many
// records were created.
func SeedIfEmpty(store *Store) int {
	if store.restored || len(store.List()) > 0 {
		return 0
	}
	drafts := DefaultDrafts()
	for _, draft := range drafts {
		store.Create(draft)
	}
	return len(drafts)
}
