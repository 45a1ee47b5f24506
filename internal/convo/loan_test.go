package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanMenuNavigation(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "loan")
	assert.Equal(t, LabelLoanMenu, res.Label)
	assert.Equal(t, loanMainMenu, res.Reply)

	res = say(e, st, "1")
	assert.Equal(t, LabelLoanCategory, res.Label)
	assert.Equal(t, securedMenu, res.Reply)
	assert.Equal(t, LoanSecured, st.Loan.Category)

	res = say(e, st, "9")
	assert.Equal(t, securedMenu, res.Reply)
	assert.Empty(t, st.Loan.Product)

	res = say(e, st, "4")
	assert.Equal(t, LabelLoanProduct, res.Label)
	assert.Equal(t, ProductGold, st.Loan.Product)
	assert.Contains(t, res.Reply, loanServiceMenu)
}

func TestLoanCategoryDigitWhenFlowActive(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)
	st.enter(FlowLoan)

	res := say(e, st, "1")
	assert.Equal(t, securedMenu, res.Reply)
	assert.Equal(t, LoanSecured, st.Loan.Category)
}

func TestPersonalLoanUnderage(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	say(e, st, "personal loan", "1")
	require.Equal(t, ServiceEligibility, st.Loan.Service)

	res := say(e, st, "17")
	assert.Equal(t, LabelLoanRejected, res.Label)
	assert.Contains(t, res.Reply, "Not eligible")
	assert.Contains(t, res.Reply, "Minimum age required is 21")
	assert.Equal(t, FlowNone, st.ActiveFlow)
	assert.Equal(t, LoanState{}, st.Loan)
}

func TestEligibilityMalformedInputKeepsStep(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)
	say(e, st, "gold loan", "1", "30")

	before := st.Loan
	res := say(e, st, "heavy")
	assert.Equal(t, LabelEligibilityStep, res.Label)
	assert.Equal(t, "Please enter the gold weight in whole grams (e.g., 20).", res.Reply)
	assert.Equal(t, before, st.Loan)
}

func TestGoldLoanEligibilityAndApplication(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "gold loan", "1", "30", "10", "22", "5000")
	assert.Equal(t, LabelEligibilityResult, res.Label)
	assert.Contains(t, res.Reply, "Gold Value: ₹50,000")
	assert.Contains(t, res.Reply, "Eligible Amount: ₹37,500")
	assert.Contains(t, res.Reply, applyOrDecline)
	assert.True(t, st.Loan.WaitingForApply)
	assert.True(t, st.Loan.Eligibility.Eligible)
	assert.Equal(t, int64(37500), st.Loan.Eligibility.EligibleAmount)

	res = say(e, st, "maybe")
	assert.Equal(t, applyOrDecline, res.Reply)
	assert.True(t, st.Loan.WaitingForApply)

	res = say(e, st, "apply")
	assert.Equal(t, LabelApplyStart, res.Label)
	assert.Equal(t, ApplyStepName, st.Loan.Application.Step)

	res = say(e, st, "ravi kumar")
	assert.Equal(t, incomeConfirm, res.Reply)

	res = say(e, st, "45000")
	assert.Equal(t, panPrompt, res.Reply)

	res = say(e, st, "12345")
	assert.Equal(t, panPrompt, res.Reply)
	assert.Equal(t, ApplyStepTaxID, st.Loan.Application.Step)

	res = say(e, st, "skip")
	assert.Equal(t, uploadPrompt, res.Reply)

	res = say(e, st, "what documents do I need")
	assert.Equal(t, LabelLoanDocuments, res.Label)
	assert.Equal(t, docsSecured, res.Reply)
	assert.Equal(t, ApplyStepUpload, st.Loan.Application.Step)

	res = say(e, st, "later")
	assert.Equal(t, uploadPrompt, res.Reply)

	res = say(e, st, "done")
	assert.Equal(t, LabelApplySubmitted, res.Label)
	assert.Regexp(t, `APP[0-9A-F]{10}`, res.Reply)
	assert.Contains(t, res.Reply, "Gold Loan")
	assert.Contains(t, res.Reply, "Ravi Kumar")
	assert.Contains(t, res.Reply, "PAN: Not Provided")
	assert.Contains(t, res.Reply, "₹37,500")
	assert.Equal(t, FlowNone, st.ActiveFlow)
	assert.Equal(t, LoanState{}, st.Loan)
}

func TestDeclineAfterEligibility(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)
	say(e, st, "loan against fd", "1", "40", "200000")
	require.True(t, st.Loan.WaitingForApply)

	res := say(e, st, "not now")
	assert.Equal(t, LabelReject, res.Label)
	assert.Equal(t, FlowNone, st.ActiveFlow)
	assert.Equal(t, LoanState{}, st.Loan)
}

func TestApplyRedirectsToEligibility(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "home loan", "2")
	assert.Equal(t, LabelEligibilityNeeded, res.Label)
	assert.Equal(t, eligibilityFirst+agePrompt, res.Reply)
	assert.Equal(t, ServiceEligibility, st.Loan.Service)

	res = say(e, st, "apply for car loan")
	assert.Equal(t, LabelEligibilityNeeded, res.Label)
	assert.Equal(t, ProductAuto, st.Loan.Product)
}

func TestPersonalLoanCreditScoreSideLane(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)
	say(e, st, "personal loan", "1", "30", "30000", "2", "5")
	require.Equal(t, 4, st.Loan.Step)

	res := say(e, st, "what is cibil")
	assert.Equal(t, LabelCreditScoreInfo, res.Label)
	assert.Equal(t, creditScoreExplainer, res.Reply)
	assert.Equal(t, 4, st.Loan.Step)

	res = say(e, st, "950")
	assert.Equal(t, "Please enter a valid CIBIL score between 300 and 900.", res.Reply)

	res = say(e, st, "780")
	assert.Equal(t, LabelEligibilityResult, res.Label)
	assert.Contains(t, res.Reply, "Eligible Amount: ₹720,000")
}

func TestExperienceDependsOnEmployment(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "personal loan", "1", "30", "30000", "2", "2")
	assert.Equal(t, LabelLoanRejected, res.Label)
	assert.Contains(t, res.Reply, "3 years")

	st = NewState(ravi)
	res = say(e, st, "personal loan", "1", "30", "30000", "1", "2")
	assert.Equal(t, LabelEligibilityStep, res.Label)
	assert.Equal(t, creditScorePrompt, res.Reply)
}

func TestBusinessTermLoanApplication(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "business term loan eligibility", "35", "5", "1000000", "810", "expansion")
	require.Equal(t, LabelEligibilityResult, res.Label)
	assert.Contains(t, res.Reply, "Eligible Amount: ₹400,000")
	assert.NotContains(t, res.Reply, "guarantor")

	res = say(e, st, "apply", "Ravi Kumar", "Kumar Traders")
	assert.Equal(t, gstinPrompt, res.Reply)

	res = say(e, st, "27ABCDE1234")
	assert.Contains(t, res.Reply, "Invalid GSTIN")
	assert.Equal(t, ApplyStepGSTIN, st.Loan.Application.Step)

	say(e, st, "27abcde1234f1z5")
	res = say(e, st, "uploaded")
	assert.Equal(t, LabelApplySubmitted, res.Label)
	assert.Contains(t, res.Reply, "Business: Kumar Traders")
	assert.Contains(t, res.Reply, "GSTIN: 27ABCDE1234F1Z5")
}

func TestTermLoanGuarantorBelow800(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "term loan", "1", "35", "3", "300000", "720", "new machinery")
	require.Equal(t, LabelEligibilityResult, res.Label)
	assert.Contains(t, res.Reply, "Eligible Amount: ₹150,000")
	assert.Contains(t, res.Reply, "guarantor")
}

func TestPersonalOverdraftVariant(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "overdraft loan", "1", "1", "yes", "yes", "800")
	require.Equal(t, LabelEligibilityResult, res.Label)
	assert.Contains(t, res.Reply, "Eligible Amount: ₹3,200")

	st = NewState(ravi)
	res = say(e, st, "overdraft loan", "1", "1", "no")
	assert.Equal(t, LabelLoanRejected, res.Label)
	assert.Contains(t, res.Reply, "6 months")
}

func TestLoanStatus(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "loan status")
	assert.Equal(t, LabelLoanStatus, res.Label)
	assert.Equal(t, statusPrompt, res.Reply)

	res = say(e, st, "12345")
	assert.Equal(t, LabelLoanStatus, res.Label)

	res = say(e, st, "app1a2b3c4d5")
	assert.Equal(t, LabelLoanStatusResult, res.Label)
	assert.Contains(t, res.Reply, "APP1A2B3C4D5")
	assert.Equal(t, FlowNone, st.ActiveFlow)
}

func TestLoanDocumentsSideLane(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	res := say(e, st, "documents for business loan")
	assert.Equal(t, LabelLoanDocuments, res.Label)
	assert.Equal(t, docsBusiness, res.Reply)

	st = NewState(ravi)
	say(e, st, "unsecured loan")
	res = say(e, st, "documents")
	assert.Equal(t, docsUnsecured, res.Reply)
	assert.Equal(t, LoanUnsecured, st.Loan.Category)
}

func TestProductTables(t *testing.T) {
	for cat, codes := range categoryProducts {
		for _, code := range codes {
			p, ok := loanProducts[code]
			require.True(t, ok, code)
			assert.Equal(t, cat, p.category, code)
			assert.NotEmpty(t, p.fields, code)
		}
	}
	assert.Len(t, categoryProducts[LoanSecured], 5)
	assert.Len(t, categoryProducts[LoanUnsecured], 4)
	assert.Len(t, categoryProducts[LoanBusiness], 5)
}

func TestHomeLoanLoanToValue(t *testing.T) {
	assess := loanProducts[ProductHome].assess
	tests := []struct {
		value int64
		want  int64
	}{
		{value: 2_000_000, want: 1_800_000},
		{value: 5_000_000, want: 4_000_000},
		{value: 10_000_000, want: 7_500_000},
	}
	for _, tc := range tests {
		got, _ := assess(&Eligibility{PropertyValue: tc.value})
		assert.Equal(t, tc.want, got)
	}
}

func TestApplyDecisionAcceptsApplyInASentence(t *testing.T) {
	for _, in := range []string{"ok apply please", "please apply", "Yes, apply now"} {
		t.Run(in, func(t *testing.T) {
			e := newTestEngine(t, nil, nil)
			st := NewState(ravi)
			say(e, st, "loan against fd", "1", "40", "200000")
			require.True(t, st.Loan.WaitingForApply)

			res := say(e, st, in)
			assert.Equal(t, LabelApplyStart, res.Label)
			assert.Equal(t, ApplyStepName, st.Loan.Application.Step)
		})
	}
}

func TestApplyDecisionIgnoresNegatedApply(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)
	say(e, st, "loan against fd", "1", "40", "200000")

	res := say(e, st, "i will not apply yet")
	assert.Equal(t, applyOrDecline, res.Reply)
	assert.True(t, st.Loan.WaitingForApply)
}

func TestBusinessNameMentioningLoanProduct(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	st := NewState(ravi)

	say(e, st, "business term loan eligibility", "35", "5", "1000000", "810", "expansion")
	product := st.Loan.Product
	res := say(e, st, "apply", "Ravi Kumar")
	require.Equal(t, businessNamePrompt, res.Reply)

	res = say(e, st, "Home Decor Loans")
	assert.Equal(t, gstinPrompt, res.Reply)
	assert.Equal(t, ApplyStepGSTIN, st.Loan.Application.Step)
	assert.Equal(t, "Home Decor Loans", st.Loan.Application.BusinessName)
	assert.Equal(t, product, st.Loan.Product)
}
