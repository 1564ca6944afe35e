package domain

// Hard-coded fallbacks used whenever a config row is absent or a field of it
// is missing. Every field defaults individually; a partial row never rejects.

func DefaultPlans() map[string]Plan {
	return map[string]Plan{
		PlanFree: {
			Key:  PlanFree,
			Name: "Free",
			Features: Features{
				ChatCheckout: true,
			},
			Limits: Limits{
				MaxProducts:         10,
				MaxImagesPerProduct: 3,
				MaxActivePromotions: 0,
				TeamSeats:           1,
			},
			Prices: map[string]int64{},
		},
		PlanStarter: {
			Key:  PlanStarter,
			Name: "Starter",
			Features: Features{
				ApexTrust:    true,
				ChatCheckout: true,
			},
			Limits: Limits{
				MaxProducts:         100,
				MaxImagesPerProduct: 6,
				MaxActivePromotions: 2,
				TeamSeats:           3,
			},
			Prices: map[string]int64{
				CycleMonthly: 250_000,
				CycleYearly:  2_500_000,
			},
		},
		PlanPro: {
			Key:  PlanPro,
			Name: "Pro",
			Features: Features{
				ApexTrust:        true,
				ChatCheckout:     true,
				CustomStorefront: true,
				PrioritySupport:  true,
			},
			Limits: Limits{
				MaxProducts:         1000,
				MaxImagesPerProduct: 10,
				MaxActivePromotions: 10,
				TeamSeats:           10,
			},
			Prices: map[string]int64{
				CycleMonthly: 750_000,
				CycleYearly:  7_500_000,
			},
		},
	}
}

func DefaultAddons() map[string]AddonDefinition {
	return map[string]AddonDefinition{
		"addon_followups_boost_20": {
			SKU:  "addon_followups_boost_20",
			Name: "Follow-ups Boost x20",
			Prices: map[string]int64{
				CycleMonthly: 150_000,
				CycleYearly:  1_500_000,
			},
		},
		"addon_storefront_themes": {
			SKU:  "addon_storefront_themes",
			Name: "Storefront Themes",
			Prices: map[string]int64{
				CycleMonthly: 100_000,
				CycleYearly:  1_000_000,
			},
		},
		"addon_growth_bundle": {
			SKU:    "addon_growth_bundle",
			Name:   "Growth Bundle",
			Bundle: []string{"addon_followups_boost_20", "addon_storefront_themes"},
			Prices: map[string]int64{
				CycleMonthly: 200_000,
				CycleYearly:  2_000_000,
			},
		},
	}
}
