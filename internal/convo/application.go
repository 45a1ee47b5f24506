package convo

import (
	"fmt"
	"regexp"
	"strings"

	"bankbot/internal/entity"
)

var (
	personNameRegex   = regexp.MustCompile(`^[A-Za-z][A-Za-z .\-]{1,50}$`)
	panRegex          = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	businessNameRegex = regexp.MustCompile(`^[A-Za-z0-9 &.\-]{2,60}$`)
	gstinRegex        = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z\d]\d$`)
	uploadDoneWords   = map[string]bool{"done": true, "submitted": true, "uploaded": true, "i have uploaded": true, "uploaded all": true}
)

const (
	namePrompt         = "Please enter your full name as per your ID (letters only)."
	incomeConfirm      = "Please confirm your monthly income (₹)."
	panPrompt          = "Please enter your PAN (e.g., ABCDE1234F) or type 'skip'."
	businessNamePrompt = "Please enter your registered business name."
	gstinPrompt        = "Please enter your 15-character GSTIN (e.g., 27ABCDE1234F1Z5)."
	notProvided        = "Not Provided"
)

// applicationFlow collects identity details for an eligible applicant. The
// sequence depends on the product's category.
func (e *Engine) applicationFlow(st *State, t *turn) Result {
	l := &st.Loan
	a := &l.Application
	category := loanProducts[l.Product].category

	switch a.Step {
	case ApplyStepName:
		if !personNameRegex.MatchString(t.raw) {
			return e.reply(t, LabelApplyStep, namePrompt)
		}
		a.Name = entity.TitleCase(t.raw)
		switch category {
		case LoanBusiness:
			a.Step = ApplyStepBusinessName
			return e.reply(t, LabelApplyStep, businessNamePrompt)
		case LoanSecured:
			a.Step = ApplyStepIncome
			return e.reply(t, LabelApplyStep, incomeConfirm)
		}
		a.Step = ApplyStepTaxID
		return e.reply(t, LabelApplyStep, panPrompt)

	case ApplyStepIncome:
		v, ok := entity.ParseAmount(t.raw)
		if !ok || v < 1000 {
			return e.reply(t, LabelApplyStep, "Please enter your monthly income in digits (e.g., 45000).")
		}
		a.Income = v
		a.Step = ApplyStepTaxID
		return e.reply(t, LabelApplyStep, panPrompt)

	case ApplyStepTaxID:
		if t.text == "skip" {
			a.TaxID = notProvided
		} else {
			pan := strings.ToUpper(t.text)
			if !panRegex.MatchString(pan) {
				return e.reply(t, LabelApplyStep, panPrompt)
			}
			a.TaxID = pan
		}
		a.Step = ApplyStepUpload
		return e.reply(t, LabelApplyStep, uploadPrompt)

	case ApplyStepBusinessName:
		if !businessNameRegex.MatchString(t.raw) {
			return e.reply(t, LabelApplyStep, businessNamePrompt)
		}
		a.BusinessName = t.raw
		a.Step = ApplyStepGSTIN
		return e.reply(t, LabelApplyStep, gstinPrompt)

	case ApplyStepGSTIN:
		gstin := strings.ToUpper(strings.ReplaceAll(t.text, " ", ""))
		if !gstinRegex.MatchString(gstin) {
			return e.reply(t, LabelApplyStep, "Invalid GSTIN. "+gstinPrompt)
		}
		a.TaxID = gstin
		a.Step = ApplyStepUpload
		return e.reply(t, LabelApplyStep, uploadPrompt)

	case ApplyStepUpload:
		switch {
		case docsQueryRegex.MatchString(t.text):
			return e.reply(t, LabelLoanDocuments, documentsFor(category))
		case uploadDoneWords[t.text]:
			a.DocumentsConfirmed = true
			return e.submitApplication(st, t)
		}
		return e.reply(t, LabelApplyStep, uploadPrompt)
	}

	st.Reset()
	return e.reply(t, LabelLoanMenu, loanMainMenu)
}

func (e *Engine) submitApplication(st *State, t *turn) Result {
	l := st.Loan
	a := l.Application
	p := loanProducts[l.Product]

	var b strings.Builder
	b.WriteString("✅ Your loan application has been submitted!\n")
	fmt.Fprintf(&b, "Application Number: %s\n", newRef("APP"))
	fmt.Fprintf(&b, "Loan Type: %s\n", p.title)
	fmt.Fprintf(&b, "Applicant: %s\n", a.Name)
	if a.Income > 0 {
		fmt.Fprintf(&b, "Monthly Income: %s\n", formatINR(a.Income))
	}
	if p.category == LoanBusiness {
		fmt.Fprintf(&b, "Business: %s\nGSTIN: %s\n", a.BusinessName, a.TaxID)
	} else {
		fmt.Fprintf(&b, "PAN: %s\n", a.TaxID)
	}
	fmt.Fprintf(&b, "Eligible Amount: %s\n", formatINR(l.Eligibility.EligibleAmount))
	b.WriteString("Our loan officer will contact you within 2 working days. Use your application number to check the status.")

	e.logger.Info("loan application submitted", "product", l.Product)
	st.Reset()
	return e.reply(t, LabelApplySubmitted, b.String())
}
