package convo

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	loanRegex        = regexp.MustCompile(`\bloans?\b`)
	loanOnlyRegex    = regexp.MustCompile(`^(a |my )?loans?$`)
	docsQueryRegex   = regexp.MustCompile(`\b(documents?|docs|papers|checklist)\b`)
	eligibilityRegex = regexp.MustCompile(`\beligib(le|ility)\b`)
	applyWordRegex   = regexp.MustCompile(`\bapply\b`)
	statusWordRegex  = regexp.MustCompile(`\b(status|track)\b`)
	appRefRegex      = regexp.MustCompile(`^APP[0-9A-Z]{8,}$`)

	negatedApplyRegex     = regexp.MustCompile(`\b(not|don'?t|won'?t|never)\b.*\bapply\b`)
	creditScoreQueryRegex = regexp.MustCompile(`\bwhat('?s| is| are)\b.*\b(cibil|credit score)|\b(cibil|credit score)\b.*\b(mean|means|meaning)\b|\bexplain\b.*\b(cibil|credit score)`)

	loanCategories       = []LoanCategory{LoanSecured, LoanUnsecured, LoanBusiness}
	loanCategoryKeywords = []actionMatcher[LoanCategory]{
		{LoanBusiness, regexp.MustCompile(`\b(business|msme|sme)\b`)},
		{LoanUnsecured, regexp.MustCompile(`\bunsecured\b`)},
		{LoanSecured, regexp.MustCompile(`\bsecured\b`)},
	}
	loanServices        = []LoanService{ServiceEligibility, ServiceApply, ServiceStatus}
	loanServiceKeywords = []actionMatcher[LoanService]{
		{ServiceEligibility, eligibilityRegex},
		{ServiceApply, applyWordRegex},
		{ServiceStatus, statusWordRegex},
	}

	declineWords = map[string]bool{
		"no": true, "nope": true, "not now": true, "later": true, "maybe later": true,
		"stop": true, "cancel": true, "no thanks": true, "no thank you": true,
	}
)

// loanFlow owns every turn while the loan flow is active, and opens it when a
// loan keyword arrives from elsewhere.
func (e *Engine) loanFlow(st *State, t *turn) Result {
	l := &st.Loan
	if st.ActiveFlow != FlowLoan || loanOnlyRegex.MatchString(t.text) ||
		(!l.Application.Step.freeText() && namesLoanProduct(t.text)) {
		return e.openLoan(st, t)
	}

	if docsQueryRegex.MatchString(t.text) && l.Application.Step != ApplyStepUpload {
		return e.loanDocuments(st, t)
	}
	switch {
	case l.Application.Step != ApplyStepNone:
		return e.applicationFlow(st, t)
	case l.Service == ServiceStatus:
		return e.loanStatus(st, t)
	case l.Service == ServiceEligibility:
		return e.eligibilityFlow(st, t)
	case l.Product != "":
		return e.chooseService(st, t)
	case l.Category != "":
		return e.chooseProduct(st, t)
	default:
		return e.chooseCategory(st, t)
	}
}

// openLoan starts the loan flow, honouring a product, category or service
// named in the same message.
func (e *Engine) openLoan(st *State, t *turn) Result {
	st.enter(FlowLoan)
	l := &st.Loan

	p, named := productFromKeyword(t.text)
	if named {
		l.Category, l.Product = p.category, p.code
	} else if cat, ok := matchAction(loanCategoryKeywords, t.text); ok {
		l.Category = cat
	}

	switch {
	case docsQueryRegex.MatchString(t.text):
		return e.loanDocuments(st, t)
	case statusWordRegex.MatchString(t.text):
		l.Service = ServiceStatus
		return e.reply(t, LabelLoanStatus, statusPrompt)
	case named && eligibilityRegex.MatchString(t.text):
		return e.startEligibility(st, t, false)
	case named && applyWordRegex.MatchString(t.text):
		return e.startEligibility(st, t, true)
	case named:
		return e.reply(t, LabelLoanProduct, productSelected(p))
	case l.Category != "":
		return e.reply(t, LabelLoanCategory, categoryMenus[l.Category])
	}
	return e.reply(t, LabelLoanMenu, loanMainMenu)
}

func (e *Engine) chooseCategory(st *State, t *turn) Result {
	cat, ok := choose(loanCategories, loanCategoryKeywords, t.text)
	if !ok {
		return e.reply(t, LabelLoanMenu, loanMainMenu)
	}
	st.Loan.Category = cat
	return e.reply(t, LabelLoanCategory, categoryMenus[cat])
}

func (e *Engine) chooseProduct(st *State, t *turn) Result {
	l := &st.Loan
	code, ok := productFromChoice(l.Category, t.text)
	if !ok {
		return e.reply(t, LabelLoanCategory, categoryMenus[l.Category])
	}
	l.Product = code
	return e.reply(t, LabelLoanProduct, productSelected(loanProducts[code]))
}

func (e *Engine) chooseService(st *State, t *turn) Result {
	svc, ok := choose(loanServices, loanServiceKeywords, t.text)
	if !ok {
		return e.reply(t, LabelLoanProduct, loanServiceMenu)
	}
	switch svc {
	case ServiceStatus:
		st.Loan.Service = ServiceStatus
		return e.reply(t, LabelLoanStatus, statusPrompt)
	case ServiceApply:
		return e.startEligibility(st, t, true)
	default:
		return e.startEligibility(st, t, false)
	}
}

// startEligibility begins slot collection for the selected product. Apply
// requests land here too, since an application needs a passed check.
func (e *Engine) startEligibility(st *State, t *turn, redirected bool) Result {
	l := &st.Loan
	l.Service = ServiceEligibility
	l.Step = 0
	l.Eligibility = Eligibility{}

	fields := fieldsFor(l)
	if len(fields) == 0 {
		st.Reset()
		return e.reply(t, LabelLoanMenu, loanMainMenu)
	}
	if redirected {
		return e.reply(t, LabelEligibilityNeeded, eligibilityFirst+fields[0].prompt)
	}
	title := loanProducts[l.Product].title
	return e.reply(t, LabelEligibilityCheck, fmt.Sprintf("Let's check your eligibility for a %s.\n%s", title, fields[0].prompt))
}

// eligibilityFlow collects one field per turn. Malformed answers re-prompt
// the same field; a disqualifying answer ends the flow.
func (e *Engine) eligibilityFlow(st *State, t *turn) Result {
	l := &st.Loan
	fields := fieldsFor(l)
	if l.Step >= len(fields) {
		return e.completeEligibility(st, t)
	}

	f := fields[l.Step]
	if creditScoreQueryRegex.MatchString(t.text) {
		if f.key == "credit_score" {
			return e.reply(t, LabelCreditScoreInfo, creditScoreExplainer)
		}
		return e.reply(t, LabelCreditScoreInfo, creditScoreInfo+"\n\n"+f.prompt)
	}

	ans, ok := f.parse(t.raw, t.text)
	if !ok {
		return e.reply(t, LabelEligibilityStep, f.retry)
	}
	if reason := f.accept(&l.Eligibility, ans); reason != "" {
		e.metrics.Disqualifications.WithLabelValues(string(FlowLoan), l.Product).Inc()
		e.logger.Info("loan eligibility rejected", "product", l.Product, "field", f.key)
		st.Reset()
		return e.reply(t, LabelLoanRejected, "❌ "+reason)
	}

	l.Step++
	if fields = fieldsFor(l); l.Step < len(fields) {
		return e.reply(t, LabelEligibilityStep, fields[l.Step].prompt)
	}
	return e.completeEligibility(st, t)
}

func (e *Engine) completeEligibility(st *State, t *turn) Result {
	l := &st.Loan
	p := loanProducts[l.Product]
	amount, details := p.assess(&l.Eligibility)
	l.Eligibility.EligibleAmount = amount
	l.Eligibility.Eligible = true
	l.WaitingForApply = true

	var b strings.Builder
	fmt.Fprintf(&b, "✅ You are eligible for a %s!\n", p.title)
	for _, d := range details {
		b.WriteString(d + "\n")
	}
	fmt.Fprintf(&b, "Eligible Amount: %s\nIndicative Rate: %s p.a.\n\n%s", formatINR(amount), p.rate, applyOrDecline)
	return e.reply(t, LabelEligibilityResult, b.String())
}

// applyDecision handles the turn after a passed eligibility check.
func (e *Engine) applyDecision(st *State, t *turn) Result {
	l := &st.Loan
	switch {
	case applyWordRegex.MatchString(t.text) && !negatedApplyRegex.MatchString(t.text):
		l.WaitingForApply = false
		l.Service = ServiceApply
		l.Application = Application{Step: ApplyStepName}
		return e.reply(t, LabelApplyStart, accountNamePrompt)
	case declineWords[t.text]:
		st.Reset()
		return e.reply(t, LabelReject, declineReply)
	}
	return e.reply(t, LabelEligibilityResult, applyOrDecline)
}

func (e *Engine) loanStatus(st *State, t *turn) Result {
	ref := strings.ToUpper(strings.TrimSpace(t.raw))
	if !appRefRegex.MatchString(ref) {
		return e.reply(t, LabelLoanStatus, "Please enter a valid application number (e.g., APP12345678).")
	}
	st.Reset()
	return e.reply(t, LabelLoanStatusResult, fmt.Sprintf(
		"Application %s is under review by our credit team. You will receive an update on your registered mobile number within 3-5 working days.", ref))
}

// loanDocuments answers a checklist query without moving the flow.
func (e *Engine) loanDocuments(st *State, t *turn) Result {
	docs := documentsFor(st.Loan.Category)
	if docs == "" {
		return e.reply(t, LabelLoanDocuments, documentsNoCategory+"\n\n"+loanMainMenu)
	}
	return e.reply(t, LabelLoanDocuments, docs)
}

func documentsFor(cat LoanCategory) string {
	switch cat {
	case LoanSecured:
		return docsSecured
	case LoanUnsecured:
		return docsUnsecured
	case LoanBusiness:
		return docsBusiness
	}
	return ""
}

// namesLoanProduct reports whether text asks for a specific loan, which
// restarts the flow on that product.
func namesLoanProduct(text string) bool {
	if !loanRegex.MatchString(text) {
		return false
	}
	_, ok := productFromKeyword(text)
	return ok
}

func productSelected(p *loanProduct) string {
	return fmt.Sprintf("%s selected.\n%s", p.title, loanServiceMenu)
}

// choose resolves a numbered menu choice or a keyword synonym.
func choose[A ~string](options []A, keywords []actionMatcher[A], text string) (A, bool) {
	if len(text) == 1 && text[0] >= '1' && int(text[0]-'0') <= len(options) {
		return options[text[0]-'1'], true
	}
	return matchAction(keywords, text)
}
