package convo

const (
	greetingReply = "Hello, how may I assist you?"
	unknownReply  = "Sorry, I did not understand that. Could you please rephrase?"
	failureReply  = "Sorry, something went wrong while processing your request. Please try again."
	cancelReply   = "Okay, I've cancelled that request. How else can I help you?"
	continueTail  = "\n\nWould you like to continue?"

	cardAskMenu = "Which card do you need help with?\n1) Debit Card\n2) Credit Card"
	cardAskType = "Please choose 1 for Debit or 2 for Credit."
	debitMenu   = "Debit Card Services:\n1) Block Card\n2) Unblock Card\n3) Card Status\n4) Apply for New Card\n5) Report Lost/Stolen Card"
	creditMenu  = "Credit Card Services:\n1) Block Card\n2) Unblock Card\n3) Card Status\n4) Apply for New Card\n5) View Bill\n6) Pay Bill"
	billPrompt  = "Enter bill amount to pay (e.g., 2500)."

	atmMenu = "ATM Services:\n1) Locate Nearest ATM\n2) Withdrawal Limit\n3) Report ATM Issue\n4) Cash Not Dispensed\n5) Change ATM PIN"

	loanMainMenu     = "Which type of loan are you interested in?\n1) Secured Loans\n2) Unsecured Loans\n3) Business Loans"
	securedMenu      = "Secured Loans:\n1) Home Loan\n2) Auto Loan\n3) Loan Against Property\n4) Gold Loan\n5) Loan Against FD"
	unsecuredMenu    = "Unsecured Loans:\n1) Personal Loan\n2) Education Loan\n3) Credit Card Loan\n4) Debt Consolidation Loan"
	businessMenu     = "Business Loans:\n1) Term Loan\n2) Working Capital Loan\n3) Equipment Financing\n4) Invoice Financing\n5) Business Overdraft"
	loanServiceMenu  = "What would you like to do?\n1) Check Eligibility\n2) Apply for Loan\n3) Check Application Status"
	eligibilityFirst = "Please check eligibility first. "
	applyOrDecline   = "Type 'apply' to continue or 'not now' to cancel."
	statusPrompt     = "Please enter your application number (e.g., APP12345678)."
	declineReply     = "No problem. Let me know if you need anything else."

	creditScoreExplainer = "A CIBIL (credit) score is a 3-digit number between 300 and 900 that reflects your credit history. " +
		"Scores above 750 are considered good and improve your chances of loan approval at better interest rates. " +
		"Please enter your score to continue."
	creditScoreInfo = "A CIBIL (credit) score is a 3-digit number between 300 and 900 that summarises how you have repaid loans and credit cards. " +
		"Scores of 750 and above are considered good for most loans."
	documentsNoCategory = "Documents vary by loan type. Please select a loan category first."

	docsSecured = "Documents required for secured loans:\n- PAN card and Aadhaar\n- Last 6 months' salary slips or ITR\n- Last 6 months' bank statements\n" +
		"- Property / vehicle / gold / FD documents for the pledged asset"
	docsUnsecured = "Documents required for unsecured loans:\n- PAN card and Aadhaar\n- Last 3 months' salary slips\n- Last 6 months' bank statements\n- Form 16 or latest ITR"
	docsBusiness  = "Documents required for business loans:\n- PAN and GST registration certificate\n- Udyam registration (if available)\n- Last 2 years' ITR and audited financials\n" +
		"- Last 12 months' business bank statements"
	uploadPrompt = "Please upload the required documents through the secure link sent to your registered email, then type 'done'. " +
		"Type 'what documents' to see the checklist."

	accountNamePrompt = "Please provide your full name."
	accountTypeMenu   = "Select account type:\n1) Savings Account\n2) Current Account"
	accountConfirm    = "Type 'confirm' to submit or 'edit' to start over."

	transferAskReceiver = "To whom would you like to transfer money?"
	transferAskMethod   = "Choose payment method: UPI or Bank Transfer (NEFT/IMPS/RTGS)."
	transferSelf        = "❌ You cannot transfer money to your own account."
	transferNoFunds     = "❌ Transaction Failed: Insufficient Balance."
	transferNoLogin     = "Please log in to your account to make a transfer."

	balancePrompt   = "Please provide your account number to view the balance."
	accountNotFound = "❌ Account not found in records."

	emiPrompt = "Please share the loan amount and tenure, e.g. '500000 5 years' or '200000 24 months'."

	helpReply = "I can help you with debit and credit cards, ATM services, loans (eligibility, applications and status), " +
		"opening a new account, checking your balance, fund transfers and EMI calculations. Try \"debit card\", \"home loan\" or \"transfer money\"."
)
