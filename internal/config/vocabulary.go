package config

var excludeLocationTerms = []string{
	"canada", "united states", "usa", "u.s.", "australia", "new zealand",
	"singapore", "hong kong", "india", "pakistan", "philippines", "malaysia",
	"thailand", "south africa", "nigeria", "kenya", "rwanda",
	"germany", "france", "spain", "italy", "netherlands", "belgium",
	"switzerland", "sweden", "norway", "denmark", "finland", "poland",
	"romania", "bulgaria", "austria", "portugal", "ireland",
}

var ukLocationTerms = []string{
	"london", "greater london", "united kingdom", "england", "scotland",
	"wales", "uk", "gb", "great britain",
}

var roleTitleRequirements = []string{
	"manager", "owner", "lead", "principal", "head", "director", "specialist",
	"analyst", "architect", "strategy", "operations", "management", "vp",
}

// DefaultVocabulary is the candidate profile the engine ships with:
// financial-crime, KYC and onboarding product roles.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		DomainTerms: []string{
			"kyc", "aml", "onboarding", "screening", "financial crime",
			"transaction monitoring", "sanctions", "identity", "fraud",
			"compliance", "due diligence", "edd", "cdd", "kyb", "clm",
			"client lifecycle", "customer lifecycle", "account opening",
			"account onboarding", "client onboarding", "regulatory", "regtech",
			"case management", "investigation",
		},
		ExtraTerms: []string{
			"api", "platform", "data", "analytics", "dashboard", "workflow",
			"orchestration", "decisioning", "rules", "configuration", "integration",
		},
		ProductPhrases: []string{
			"product manager", "product owner", "product lead",
			"product director", "product operations", "product management",
		},
		ProcessTerms: []string{"process", "operational", "operations", "transformation"},
		VendorCompanies: []string{
			"fenergo", "complyadvantage", "quantexa", "lexisnexis", "nice actimize",
			"actimize", "pega", "oracle", "fis", "moody", "s&p global", "appian",
			"kyc360", "ripjar", "symphonyai", "saphyre", "encompass", "napier",
			"bridger", "dow jones", "alloy", "onfido", "trulioo", "sumsub", "veriff",
			"socure", "experian", "kyckr", "entrust", "finscan", "imtf", "norbloc",
			"smartkyc", "kyc portal",
		},
		FintechCompanies: []string{
			"wise", "airwallex", "revolut", "monzo", "starling", "engine by starling",
			"visa", "mastercard", "worldpay", "checkout.com", "stripe", "modulr",
			"gocardless", "klarna", "n26", "tide", "mollie", "jpmorganchase",
			"goldman sachs", "marcus", "lseg", "broadridge", "davies", "experian",
			"socure", "kyckr", "quantexa", "complyadvantage", "plaid", "truelayer",
			"tink", "marqeta", "adyen", "rapyd", "curve", "chip", "kroo", "zopa",
			"oaknorth", "clearpay", "funding circle", "lendable", "zilch",
		},
		BankCompanies: []string{
			"barclays", "hsbc", "natwest", "lloyds", "lloyds banking group",
			"santander", "standard chartered", "citi", "jpmorgan", "goldman sachs",
			"morgan stanley", "bank of america", "deutsche bank", "ubs", "lseg",
			"nationwide", "tsb", "virgin money", "metro bank", "tesco bank", "coutts",
			"bnp paribas", "rbc", "ing", "rabobank", "abn amro", "unicredit",
		},
		TechCompanies: []string{
			"google", "microsoft", "amazon", "apple", "meta", "salesforce",
			"oracle", "sap", "servicenow", "atlassian",
		},
		ReasonHints: []Hint{
			{"onboarding", "Onboarding workflow ownership fits your KYC/onboarding platform delivery."},
			{"kyc", "KYC domain aligns with your screening and compliance controls work."},
			{"aml", "AML product experience aligns with your financial crime delivery."},
			{"fraud", "Fraud prevention aligns with your screening-threshold optimization work."},
			{"identity", "Identity verification aligns with your onboarding and risk controls background."},
			{"case management", "Case management aligns with investigation and alert triage workflows."},
			{"investigation", "Investigation workflow ownership aligns with your financial crime delivery."},
			{"data", "Data and analytics product work aligns with your reporting dashboard builds."},
			{"api", "Platform/API focus matches your integration and orchestration experience."},
			{"clm", "Client lifecycle management aligns with your onboarding and screening background."},
			{"client lifecycle", "Client lifecycle management aligns with your onboarding and screening background."},
			{"customer lifecycle", "Customer lifecycle management aligns with your onboarding and screening background."},
			{"account opening", "Account opening aligns with onboarding and journey design experience."},
			{"kyb", "KYB exposure aligns with your complex entity onboarding experience."},
			{"screening", "Screening and monitoring align with your financial crime controls work."},
		},
		DefaultReason: "Strong fit with your financial crime, onboarding, and platform delivery background.",
		GapHints: []Hint{
			{"lending", "Highlight any lending or credit lifecycle exposure."},
			{"credit", "Highlight any credit decisioning or lending exposure."},
			{"mobile", "Show any mobile UX or app product experience."},
			{"consumer", "Emphasize consumer or retail onboarding if applicable."},
			{"payments", "Show any payments or merchant onboarding experience."},
			{"merchant", "Add any merchant onboarding or acquiring examples."},
			{"ml", "Call out ML or model-driven risk tooling if relevant."},
			{"machine learning", "Call out ML or model-driven risk tooling if relevant."},
			{"data platform", "Emphasize data platform and data quality ownership."},
		},
		DefaultGap:            "No obvious gaps; emphasize cross-functional delivery and regulated environment experience.",
		PreferenceRegionTerms: []string{"london", "remote", "united kingdom", "hybrid"},
		PreferenceDomainTerms: []string{"kyc", "aml", "screening", "onboarding", "financial crime", "sanctions"},
	}
}
