package convo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bankbot/internal/entity"
)

// answer is a parsed slot value; numeric fields use n, choices and free text use s.
type answer struct {
	n int64
	s string
}

// field is one row of a product's eligibility table.
type field struct {
	key    string
	prompt string
	retry  string
	parse  func(raw, text string) (answer, bool)
	// accept stores the value and returns a rejection reason, or "" to continue.
	accept func(e *Eligibility, a answer) string
}

// loanProduct describes one loan offering and its eligibility table.
type loanProduct struct {
	code     string
	title    string
	category LoanCategory
	rate     string
	keywords *regexp.Regexp
	fields   []field
	// assess computes the eligible amount and the detail lines shown with it.
	assess func(e *Eligibility) (int64, []string)
}

const (
	ProductHome      = "home"
	ProductAuto      = "auto"
	ProductLAP       = "lap"
	ProductGold      = "gold"
	ProductFD        = "fd"
	ProductPersonal  = "personal"
	ProductEducation = "education"
	ProductCredit    = "credit"
	ProductDebt      = "debt"
	ProductTerm      = "term"
	ProductWC        = "wc"
	ProductEquipment = "equip"
	ProductInvoice   = "invoice"
	ProductOverdraft = "od"
)

var categoryProducts = map[LoanCategory][]string{
	LoanSecured:   {ProductHome, ProductAuto, ProductLAP, ProductGold, ProductFD},
	LoanUnsecured: {ProductPersonal, ProductEducation, ProductCredit, ProductDebt},
	LoanBusiness:  {ProductTerm, ProductWC, ProductEquipment, ProductInvoice, ProductOverdraft},
}

var categoryMenus = map[LoanCategory]string{
	LoanSecured:   securedMenu,
	LoanUnsecured: unsecuredMenu,
	LoanBusiness:  businessMenu,
}

var (
	countRegex = regexp.MustCompile(`^(\d{1,4})\s*(years?|yrs?|grams?|gms?|g)?$`)
	scoreRegex = regexp.MustCompile(`^\d{3}$`)
)

func parseCount(maxDigits int) func(raw, text string) (answer, bool) {
	return func(_, text string) (answer, bool) {
		m := countRegex.FindStringSubmatch(text)
		if m == nil || len(m[1]) > maxDigits {
			return answer{}, false
		}
		n, _ := strconv.ParseInt(m[1], 10, 64)
		return answer{n: n}, true
	}
}

// parseRupees accepts any rupee figure of at least minDigits digits.
func parseRupees(minDigits int) func(raw, text string) (answer, bool) {
	floor := int64(1)
	for i := 1; i < minDigits; i++ {
		floor *= 10
	}
	return func(raw, _ string) (answer, bool) {
		v, ok := entity.ParseAmount(raw)
		if !ok || v < floor {
			return answer{}, false
		}
		return answer{n: v}, true
	}
}

func parseChoice(options map[string]string) func(raw, text string) (answer, bool) {
	return func(_, text string) (answer, bool) {
		if v, ok := options[text]; ok {
			return answer{s: v}, true
		}
		return answer{}, false
	}
}

var yesNoOptions = map[string]string{
	"yes": "yes", "y": "yes", "yeah": "yes", "yep": "yes", "haan": "yes",
	"no": "no", "n": "no", "nope": "no", "nahi": "no",
}

func parseFreeText(_ string, text string) (answer, bool) {
	if len(strings.TrimSpace(text)) < 3 {
		return answer{}, false
	}
	return answer{s: text}, true
}

func ageField(prompt string, min, max int64) field {
	reason := fmt.Sprintf("Not eligible: Minimum age required is %d.", min)
	if max > 0 {
		reason = fmt.Sprintf("Not eligible: Age must be between %d and %d.", min, max)
	}
	return field{
		key:    "age",
		prompt: prompt,
		retry:  "Please enter a valid age in years (numbers only).",
		parse:  parseCount(3),
		accept: func(e *Eligibility, a answer) string {
			e.Age = a.n
			if a.n < min || (max > 0 && a.n > max) {
				return reason
			}
			return ""
		},
	}
}

func incomeField(prompt string, min int64) field {
	return field{
		key:    "income",
		prompt: prompt,
		retry:  "Please enter your monthly income in digits (e.g., 35000).",
		parse:  parseRupees(4),
		accept: func(e *Eligibility, a answer) string {
			e.Income = a.n
			if a.n < min {
				return fmt.Sprintf("Not eligible: Minimum monthly income required is %s.", formatINR(min))
			}
			return ""
		},
	}
}

func employmentField(prompt string, allowSelf bool) field {
	options := map[string]string{
		"1": string(EmploymentGovernment), "government": string(EmploymentGovernment), "govt": string(EmploymentGovernment),
		"2": string(EmploymentPrivate), "private": string(EmploymentPrivate),
	}
	retry := "Please choose 1 for Government or 2 for Private."
	if allowSelf {
		options["3"] = string(EmploymentSelf)
		options["self"] = string(EmploymentSelf)
		options["self employed"] = string(EmploymentSelf)
		options["self-employed"] = string(EmploymentSelf)
		options["business"] = string(EmploymentSelf)
		retry = "Please choose 1 for Government, 2 for Private or 3 for Self-employed."
	}
	return field{
		key:    "employment",
		prompt: prompt,
		retry:  retry,
		parse:  parseChoice(options),
		accept: func(e *Eligibility, a answer) string {
			e.Employment = Employment(a.s)
			return ""
		},
	}
}

var minExperience = map[Employment]int64{
	EmploymentGovernment: 1,
	EmploymentPrivate:    3,
	EmploymentSelf:       2,
}

func experienceField() field {
	return field{
		key:    "experience",
		prompt: "How many years of work experience do you have?",
		retry:  "Please enter your experience in whole years (e.g., 4).",
		parse:  parseCount(2),
		accept: func(e *Eligibility, a answer) string {
			e.Experience = a.n
			need := minExperience[e.Employment]
			if a.n >= need {
				return ""
			}
			switch e.Employment {
			case EmploymentGovernment:
				return fmt.Sprintf("Not eligible: Government employees need at least %d year of service.", need)
			case EmploymentSelf:
				return fmt.Sprintf("Not eligible: Self-employed applicants need at least %d years in business.", need)
			default:
				return fmt.Sprintf("Not eligible: Private sector employees need at least %d years of work experience.", need)
			}
		},
	}
}

func creditScoreField(prompt string, min int64) field {
	return field{
		key:    "credit_score",
		prompt: prompt,
		retry:  "Please enter a valid CIBIL score between 300 and 900.",
		parse: func(_, text string) (answer, bool) {
			if !scoreRegex.MatchString(text) {
				return answer{}, false
			}
			n, _ := strconv.ParseInt(text, 10, 64)
			if n < 300 || n > 900 {
				return answer{}, false
			}
			return answer{n: n}, true
		},
		accept: func(e *Eligibility, a answer) string {
			e.CreditScore = a.n
			if a.n < min {
				return fmt.Sprintf("Not eligible: Minimum CIBIL score required is %d.", min)
			}
			return ""
		},
	}
}

func vintageField(min int64) field {
	return field{
		key:    "business_vintage",
		prompt: "How many years has your business been operating?",
		retry:  "Please enter the business age in whole years (e.g., 3).",
		parse:  parseCount(2),
		accept: func(e *Eligibility, a answer) string {
			e.BusinessVintage = a.n
			if a.n < min {
				return fmt.Sprintf("Not eligible: Business must be operating for at least %d years.", min)
			}
			return ""
		},
	}
}

func turnoverField(min int64) field {
	return field{
		key:    "turnover",
		prompt: "Enter your annual business turnover (₹).",
		retry:  "Please enter the annual turnover in digits (e.g., 1200000).",
		parse:  parseRupees(4),
		accept: func(e *Eligibility, a answer) string {
			e.Turnover = a.n
			if a.n < min {
				return fmt.Sprintf("Not eligible: Minimum annual turnover required is %s.", formatINR(min))
			}
			return ""
		},
	}
}

func requiredYesField(key, prompt, reason string, set func(e *Eligibility)) field {
	return field{
		key:    key,
		prompt: prompt,
		retry:  "Please answer yes or no.",
		parse:  parseChoice(yesNoOptions),
		accept: func(e *Eligibility, a answer) string {
			if a.s != "yes" {
				return reason
			}
			set(e)
			return ""
		},
	}
}

func rupeeField(key, prompt, retry string, minDigits int, set func(e *Eligibility, v int64) string) field {
	return field{
		key:    key,
		prompt: prompt,
		retry:  retry,
		parse:  parseRupees(minDigits),
		accept: func(e *Eligibility, a answer) string { return set(e, a.n) },
	}
}

func percentOf(v, pct int64) int64 {
	return v * pct / 100
}

func clampAmount(v, lo, hi int64) int64 {
	return max(lo, min(v, hi))
}

const (
	agePrompt           = "Please enter your age in years."
	incomePrompt        = "Please enter your monthly income (₹)."
	employmentPrompt    = "Select your employment type:\n1) Government\n2) Private\n3) Self-employed"
	creditScorePrompt   = "Please enter your CIBIL score (300-900)."
	businessScorePrompt = "Please enter your business credit score (CIBIL/CMR, 300-900)."
)

var loanProducts = map[string]*loanProduct{
	ProductHome: {
		code: ProductHome, title: "Home Loan", category: LoanSecured, rate: "8.5%",
		keywords: regexp.MustCompile(`\b(home|housing|house)\b`),
		fields: []field{
			ageField(agePrompt, 18, 75),
			incomeField(incomePrompt, 25000),
			employmentField(employmentPrompt, true),
			experienceField(),
			creditScoreField(creditScorePrompt, 750),
			rupeeField("property_value", "Please enter the property value (₹).", "Please enter a valid property value in digits (e.g., 4500000).", 5,
				func(e *Eligibility, v int64) string { e.PropertyValue = v; return "" }),
		},
		assess: func(e *Eligibility) (int64, []string) {
			ltv := int64(75)
			switch {
			case e.PropertyValue <= 3_000_000:
				ltv = 90
			case e.PropertyValue <= 7_500_000:
				ltv = 80
			}
			return percentOf(e.PropertyValue, ltv), []string{
				"Property Value: " + formatINR(e.PropertyValue),
				fmt.Sprintf("Loan-to-Value: %d%%", ltv),
			}
		},
	},
	ProductAuto: {
		code: ProductAuto, title: "Auto Loan", category: LoanSecured, rate: "9.0%",
		keywords: regexp.MustCompile(`\b(auto|car|vehicle|bike|two[- ]wheeler)\b`),
		fields: []field{
			ageField(agePrompt, 18, 0),
			incomeField(incomePrompt, 20000),
			employmentField(employmentPrompt, true),
			experienceField(),
			creditScoreField(creditScorePrompt, 700),
			{
				key:    "vehicle_type",
				prompt: "Select vehicle type:\n1) Two-wheeler\n2) Four-wheeler (Car)",
				retry:  "Please choose 1 for Two-wheeler or 2 for Car.",
				parse: parseChoice(map[string]string{
					"1": "two_wheeler", "two wheeler": "two_wheeler", "two-wheeler": "two_wheeler", "bike": "two_wheeler",
					"2": "car", "car": "car", "four wheeler": "car", "four-wheeler": "car",
				}),
				accept: func(e *Eligibility, a answer) string { e.VehicleType = a.s; return "" },
			},
			rupeeField("vehicle_price", "Please enter the on-road price of the vehicle (₹).", "Please enter the vehicle price in digits (e.g., 850000).", 4,
				func(e *Eligibility, v int64) string { e.VehiclePrice = v; return "" }),
		},
		assess: func(e *Eligibility) (int64, []string) {
			ltv := int64(90)
			if e.VehicleType == "car" {
				ltv = 85
				if e.VehiclePrice > 1_200_000 {
					ltv = 80
				}
			}
			return percentOf(e.VehiclePrice, ltv), []string{
				"Vehicle Price: " + formatINR(e.VehiclePrice),
				fmt.Sprintf("Funding: %d%% of on-road price", ltv),
			}
		},
	},
	ProductLAP: {
		code: ProductLAP, title: "Loan Against Property", category: LoanSecured, rate: "9.5%",
		keywords: regexp.MustCompile(`against property|\blap\b`),
		fields: []field{
			ageField(agePrompt, 21, 70),
			incomeField(incomePrompt, 18000),
			employmentField(employmentPrompt, true),
			experienceField(),
			creditScoreField(creditScorePrompt, 700),
			rupeeField("property_value", "Please enter the market value of the property (₹).", "Please enter a valid property value in digits (e.g., 6000000).", 5,
				func(e *Eligibility, v int64) string { e.PropertyValue = v; return "" }),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return percentOf(e.PropertyValue, 50), []string{
				"Property Value: " + formatINR(e.PropertyValue),
				"Loan-to-Value: 50%",
			}
		},
	},
	ProductGold: {
		code: ProductGold, title: "Gold Loan", category: LoanSecured, rate: "9.25%",
		keywords: regexp.MustCompile(`\bgold\b`),
		fields: []field{
			ageField(agePrompt, 18, 0),
			{
				key:    "gold_weight",
				prompt: "Please enter the weight of your gold in grams.",
				retry:  "Please enter the gold weight in whole grams (e.g., 20).",
				parse:  parseCount(4),
				accept: func(e *Eligibility, a answer) string {
					e.GoldWeight = a.n
					if a.n < 5 {
						return "Not eligible: Minimum gold weight required is 5 grams."
					}
					return ""
				},
			},
			{
				key:    "gold_purity",
				prompt: "Please enter the gold purity in karat (22, 23 or 24).",
				retry:  "Please enter purity as 22, 23 or 24.",
				parse: parseChoice(map[string]string{
					"22": "22", "22k": "22", "22 karat": "22", "22kt": "22",
					"23": "23", "23k": "23", "23 karat": "23", "23kt": "23",
					"24": "24", "24k": "24", "24 karat": "24", "24kt": "24",
				}),
				accept: func(e *Eligibility, a answer) string {
					e.GoldPurity, _ = strconv.ParseInt(a.s, 10, 64)
					return ""
				},
			},
			rupeeField("gold_price", "Please enter today's gold price per gram (₹).", "Please enter the price per gram in digits (e.g., 5000).", 3,
				func(e *Eligibility, v int64) string { e.GoldPrice = v; return "" }),
		},
		assess: func(e *Eligibility) (int64, []string) {
			e.AssetValue = e.GoldWeight * e.GoldPrice
			return percentOf(e.AssetValue, 75), []string{
				fmt.Sprintf("Gold: %d g of %dK", e.GoldWeight, e.GoldPurity),
				"Gold Value: " + formatINR(e.AssetValue),
				"Loan-to-Value: 75%",
			}
		},
	},
	ProductFD: {
		code: ProductFD, title: "Loan Against FD", category: LoanSecured, rate: "FD rate + 1%",
		keywords: regexp.MustCompile(`against (fd|fixed deposit)|\bfd\b|fixed deposit`),
		fields: []field{
			ageField(agePrompt, 18, 0),
			rupeeField("deposit_amount", "Please enter your fixed deposit amount (₹).", "Please enter the FD amount in digits (e.g., 100000).", 3,
				func(e *Eligibility, v int64) string {
					e.DepositAmount = v
					if v < 10000 {
						return "Not eligible: Minimum FD amount required is ₹10,000."
					}
					return ""
				}),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return percentOf(e.DepositAmount, 90), []string{
				"FD Amount: " + formatINR(e.DepositAmount),
				"Loan-to-Value: 90%",
			}
		},
	},
	ProductPersonal: {
		code: ProductPersonal, title: "Personal Loan", category: LoanUnsecured, rate: "11.0%",
		keywords: regexp.MustCompile(`\bpersonal\b`),
		fields: []field{
			ageField(agePrompt, 21, 0),
			incomeField(incomePrompt, 15000),
			employmentField(employmentPrompt, true),
			experienceField(),
			creditScoreField(creditScorePrompt, 700),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return min(e.Income*24, 2_000_000), []string{
				"Monthly Income: " + formatINR(e.Income),
				"Eligibility: 24x monthly income, up to ₹2,000,000",
			}
		},
	},
	ProductEducation: {
		code: ProductEducation, title: "Education Loan", category: LoanUnsecured, rate: "9.5%",
		keywords: regexp.MustCompile(`\b(education|student|study|studies)\b`),
		fields: []field{
			ageField("Please enter the student's age in years.", 17, 0),
			incomeField("Please enter your parent/guardian's monthly income (₹).", 15000),
			employmentField("Select parent/guardian's employment type:\n1) Government\n2) Private", false),
			creditScoreField("Please enter your parent/guardian's CIBIL score (300-900).", 700),
			{
				key:    "course_location",
				prompt: "Where will the course be pursued?\n1) India\n2) Abroad",
				retry:  "Please choose 1 for India or 2 for Abroad.",
				parse:  parseChoice(map[string]string{"1": "India", "india": "India", "2": "Abroad", "abroad": "Abroad"}),
				accept: func(e *Eligibility, a answer) string { e.CourseLocation = a.s; return "" },
			},
			rupeeField("requested_amount", "Please enter the loan amount required (₹).", "Please enter the loan amount in digits (e.g., 600000).", 4,
				func(e *Eligibility, v int64) string { e.RequestedAmount = v; return "" }),
		},
		assess: func(e *Eligibility) (int64, []string) {
			collateral := "No collateral required"
			switch {
			case e.RequestedAmount > 750_000:
				collateral = "Tangible collateral security required"
			case e.RequestedAmount > 400_000:
				collateral = "Third-party guarantee required"
			}
			return e.RequestedAmount, []string{
				"Course Location: " + e.CourseLocation,
				"Security: " + collateral,
			}
		},
	},
	ProductCredit: {
		code: ProductCredit, title: "Credit Card Loan", category: LoanUnsecured, rate: "14.0%",
		keywords: regexp.MustCompile(`credit card loan|loan on credit card`),
		fields: []field{
			ageField(agePrompt, 21, 0),
			incomeField(incomePrompt, 20000),
			employmentField(employmentPrompt, true),
			creditScoreField(creditScorePrompt, 750),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return e.Income * 3, []string{
				"Monthly Income: " + formatINR(e.Income),
				"Limit: 3x monthly income",
			}
		},
	},
	ProductDebt: {
		code: ProductDebt, title: "Debt Consolidation Loan", category: LoanUnsecured, rate: "12.0%",
		keywords: regexp.MustCompile(`\bdebt\b|consolidat`),
		fields: []field{
			ageField(agePrompt, 21, 0),
			incomeField(incomePrompt, 25000),
			employmentField(employmentPrompt, true),
			experienceField(),
			creditScoreField(creditScorePrompt, 700),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return e.Income * 20, []string{
				"Monthly Income: " + formatINR(e.Income),
				"Eligibility: 20x monthly income",
			}
		},
	},
	ProductTerm: {
		code: ProductTerm, title: "Business Term Loan", category: LoanBusiness, rate: "10.5%",
		keywords: regexp.MustCompile(`\bterm\b`),
		fields: []field{
			ageField(agePrompt, 21, 0),
			vintageField(2),
			turnoverField(300_000),
			creditScoreField(creditScorePrompt, 700),
			{
				key:    "purpose",
				prompt: "What is the purpose of the loan? (e.g., expansion, renovation)",
				retry:  "Please describe the purpose of the loan in a few words.",
				parse:  parseFreeText,
				accept: func(e *Eligibility, a answer) string { e.Purpose = a.s; return "" },
			},
		},
		assess: func(e *Eligibility) (int64, []string) {
			lines := []string{
				"Annual Turnover: " + formatINR(e.Turnover),
				"Purpose: " + e.Purpose,
			}
			if e.CreditScore < 800 {
				lines = append(lines, "Note: A guarantor will be required (CIBIL below 800).")
			}
			return max(150_000, percentOf(e.Turnover, 40)), lines
		},
	},
	ProductWC: {
		code: ProductWC, title: "Working Capital Loan", category: LoanBusiness, rate: "11.0%",
		keywords: regexp.MustCompile(`working capital|\bwc\b`),
		fields: []field{
			ageField(agePrompt, 21, 0),
			vintageField(1),
			turnoverField(300_000),
			creditScoreField(businessScorePrompt, 600),
			{
				key:    "business_type",
				prompt: "What type of business do you run? (e.g., trading, manufacturing, services)",
				retry:  "Please describe your business type in a few words.",
				parse:  parseFreeText,
				accept: func(e *Eligibility, a answer) string { e.BusinessType = a.s; return "" },
			},
		},
		assess: func(e *Eligibility) (int64, []string) {
			return clampAmount(percentOf(e.Turnover, 20), 100_000, 2_500_000), []string{
				"Annual Turnover: " + formatINR(e.Turnover),
				"Business Type: " + e.BusinessType,
				"Limit: 20% of turnover (₹100,000 to ₹2,500,000)",
			}
		},
	},
	ProductEquipment: {
		code: ProductEquipment, title: "Equipment Financing", category: LoanBusiness, rate: "10.0%",
		keywords: regexp.MustCompile(`\b(equipment|machinery|machine)\b`),
		fields: []field{
			ageField(agePrompt, 21, 0),
			vintageField(3),
			turnoverField(500_000),
			creditScoreField(businessScorePrompt, 750),
			requiredYesField("registered", "Is your business registered under GST and Udyam? (yes/no)",
				"Not eligible: GST and Udyam registration are mandatory for equipment financing.",
				func(e *Eligibility) { e.Registered = true }),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return clampAmount(percentOf(e.Turnover, 20), 100_000, 5_000_000), []string{
				"Annual Turnover: " + formatINR(e.Turnover),
				"Limit: 20% of turnover (₹100,000 to ₹5,000,000)",
			}
		},
	},
	ProductInvoice: {
		code: ProductInvoice, title: "Invoice Financing", category: LoanBusiness, rate: "12.0%",
		keywords: regexp.MustCompile(`\binvoice\b|bill discount`),
		fields: []field{
			vintageField(2),
			requiredYesField("registered", "Is your business Udyam registered? (yes/no)",
				"Not eligible: Udyam registration is mandatory for invoice financing.",
				func(e *Eligibility) { e.Registered = true }),
			creditScoreField(businessScorePrompt, 700),
			rupeeField("invoice_value", "Please enter the total value of unpaid invoices (₹).", "Please enter the invoice value in digits (e.g., 250000).", 3,
				func(e *Eligibility, v int64) string {
					e.InvoiceValue = v
					switch {
					case v < 25_000:
						return "Not eligible: Minimum invoice value is ₹25,000."
					case v > 10_000_000:
						return "Not eligible: Invoice value exceeds the maximum of ₹10,000,000."
					}
					return ""
				}),
		},
		assess: func(e *Eligibility) (int64, []string) {
			return percentOf(e.InvoiceValue, 80), []string{
				"Invoice Value: " + formatINR(e.InvoiceValue),
				"Advance: 80% of invoice value",
			}
		},
	},
	ProductOverdraft: {
		code: ProductOverdraft, title: "Overdraft Facility", category: LoanBusiness, rate: "13.0%",
		keywords: regexp.MustCompile(`\boverdraft\b|\bod\b`),
		fields: []field{{
			key:    "overdraft_type",
			prompt: "Select overdraft type:\n1) Personal Overdraft\n2) Business Overdraft",
			retry:  "Please choose 1 for Personal or 2 for Business overdraft.",
			parse:  parseChoice(map[string]string{"1": "personal", "personal": "personal", "2": "business", "business": "business"}),
			accept: func(e *Eligibility, a answer) string { e.OverdraftType = a.s; return "" },
		}},
		assess: func(e *Eligibility) (int64, []string) {
			if e.OverdraftType == "personal" {
				return min(e.AverageBalance*4, 5_000), []string{
					"Average Balance: " + formatINR(e.AverageBalance),
					"Limit: 4x average balance, up to ₹5,000",
				}
			}
			return percentOf(e.Turnover, 20), []string{
				"Annual Turnover: " + formatINR(e.Turnover),
				"Limit: 20% of turnover",
			}
		},
	},
}

// overdraftVariants extend the overdraft table once the type is chosen.
var overdraftVariants = map[string][]field{
	"personal": {
		requiredYesField("account_active", "Has your savings account been active for at least 6 months? (yes/no)",
			"Not eligible: Your account must be active for at least 6 months.",
			func(e *Eligibility) { e.AccountActive = true }),
		requiredYesField("aadhaar_linked", "Is your Aadhaar linked to your bank account? (yes/no)",
			"Not eligible: Aadhaar must be linked to your bank account.",
			func(e *Eligibility) { e.AadhaarLinked = true }),
		rupeeField("average_balance", "Please enter your average monthly balance (₹).", "Please enter the average balance in digits (e.g., 2000).", 2,
			func(e *Eligibility, v int64) string { e.AverageBalance = v; return "" }),
	},
	"business": {
		vintageField(2),
		creditScoreField(businessScorePrompt, 700),
		rupeeField("turnover", "Enter your annual business turnover (₹).", "Please enter the annual turnover in digits (e.g., 1200000).", 4,
			func(e *Eligibility, v int64) string { e.Turnover = v; return "" }),
	},
}

// fieldsFor returns the eligibility table for the loan's product, including
// any variant rows selected by earlier answers.
func fieldsFor(l *LoanState) []field {
	p, ok := loanProducts[l.Product]
	if !ok {
		return nil
	}
	if p.code == ProductOverdraft && l.Eligibility.OverdraftType != "" {
		out := append([]field(nil), p.fields...)
		return append(out, overdraftVariants[l.Eligibility.OverdraftType]...)
	}
	return p.fields
}

// productFromChoice resolves a product within category by menu number or keyword.
func productFromChoice(category LoanCategory, text string) (string, bool) {
	codes := categoryProducts[category]
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(codes) {
			return codes[n-1], true
		}
		return "", false
	}
	for _, code := range codes {
		if loanProducts[code].keywords.MatchString(text) {
			return code, true
		}
	}
	return "", false
}

// productFromKeyword searches every category; used when a loan is named up front.
func productFromKeyword(text string) (*loanProduct, bool) {
	for _, cat := range []LoanCategory{LoanUnsecured, LoanSecured, LoanBusiness} {
		for _, code := range categoryProducts[cat] {
			if p := loanProducts[code]; p.keywords.MatchString(text) {
				return p, true
			}
		}
	}
	return nil, false
}
