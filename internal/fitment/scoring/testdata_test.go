package scoring

import "fitment-workers/internal/models"

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func testCatalog() []models.CanonicalVehicle {
	return []models.CanonicalVehicle{
		{ID: "v01", Slug: "bmw-3-series-e46", Name: "1999-2006 BMW 3 Series"},
		{ID: "v02", Slug: "bmw-m3-e46", Name: "2001-2006 BMW M3"},
		{ID: "v03", Slug: "bmw-m3-f80", Name: "2014-2018 BMW M3"},
		{ID: "v04", Slug: "chevrolet-camaro-ss-2016-2023", Name: "2016-2023 Chevrolet Camaro SS"},
		{ID: "v05", Slug: "chevrolet-camaro-zl1-2017-2023", Name: "2017-2023 Chevrolet Camaro ZL1"},
		{ID: "v06", Slug: "honda-civic-type-r-fk8", Name: "2017-2021 Honda Civic Type R"},
		{ID: "v07", Slug: "porsche-911-997", Name: "2005-2012 Porsche 911"},
		{ID: "v08", Slug: "volkswagen-golf-r-mk7", Name: "2015-2017 Volkswagen Golf R"},
		{ID: "v09", Slug: "volkswagen-golf-r-mk7-5", Name: "2018-2020 Volkswagen Golf R"},
		{ID: "v10", Slug: "volkswagen-golf-r-mk8", Name: "2022-Present Volkswagen Golf R"},
	}
}
