package convo

import "time"

// Flow identifies which multi-step conversation owns the session.
type Flow string

const (
	FlowNone     Flow = ""
	FlowCard     Flow = "card"
	FlowATM      Flow = "atm"
	FlowLoan     Flow = "loan"
	FlowAccount  Flow = "account"
	FlowTransfer Flow = "transfer"
)

const topicBalance = "balance"

// State is the per-session conversation context. It is owned by exactly one
// in-flight turn at a time; the session manager enforces that.
type State struct {
	Identity   string        `json:"identity,omitempty"`
	ActiveFlow Flow          `json:"active_flow,omitempty"`
	LastTopic  string        `json:"last_topic,omitempty"`
	Card       CardState     `json:"card"`
	ATM        ATMState      `json:"atm"`
	Loan       LoanState     `json:"loan"`
	Account    AccountState  `json:"account"`
	Transfer   TransferState `json:"transfer"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewState returns an empty context bound to the given account identity.
func NewState(identity string) *State {
	return &State{Identity: identity}
}

// Reset clears every flow record and the active flow. Identity is kept.
func (s *State) Reset() {
	s.ActiveFlow = FlowNone
	s.LastTopic = ""
	s.Card.Reset()
	s.ATM.Reset()
	s.Loan.Reset()
	s.Account.Reset()
	s.Transfer.Reset()
}

func (s *State) enter(flow Flow) {
	s.Reset()
	s.ActiveFlow = flow
}

type CardType string

const (
	CardDebit  CardType = "debit"
	CardCredit CardType = "credit"
)

type CardAction string

const (
	CardBlock    CardAction = "block"
	CardUnblock  CardAction = "unblock"
	CardStatus   CardAction = "status"
	CardApply    CardAction = "apply"
	CardReport   CardAction = "report"
	CardViewBill CardAction = "viewbill"
	CardPayBill  CardAction = "paybill"
)

type CardStep int

const (
	CardStepNone CardStep = iota
	CardStepType
	CardStepAction
	CardStepLast4
	CardStepAmount
)

type CardState struct {
	Type   CardType   `json:"type,omitempty"`
	Action CardAction `json:"action,omitempty"`
	Step   CardStep   `json:"step,omitempty"`
	Last4  string     `json:"last4,omitempty"`
	Amount int64      `json:"amount,omitempty"`
}

func (c *CardState) Reset() { *c = CardState{} }

type ATMAction string

const (
	ATMLocator      ATMAction = "locator"
	ATMLimit        ATMAction = "limit"
	ATMIssue        ATMAction = "issue"
	ATMNotDispensed ATMAction = "not_dispensed"
	ATMPinChange    ATMAction = "pin_change"
)

type ATMStep int

const (
	ATMStepNone ATMStep = iota
	ATMStepAction
	ATMStepLast4
)

type ATMState struct {
	Action ATMAction `json:"action,omitempty"`
	Step   ATMStep   `json:"step,omitempty"`
	Last4  string    `json:"last4,omitempty"`
}

func (a *ATMState) Reset() { *a = ATMState{} }

type LoanCategory string

const (
	LoanSecured   LoanCategory = "secured"
	LoanUnsecured LoanCategory = "unsecured"
	LoanBusiness  LoanCategory = "business"
)

type LoanService string

const (
	ServiceEligibility LoanService = "eligibility"
	ServiceApply       LoanService = "apply"
	ServiceStatus      LoanService = "status"
)

// LoanState tracks the loan conversation. Step indexes the eligibility field
// currently being collected for Product.
type LoanState struct {
	Category        LoanCategory `json:"category,omitempty"`
	Product         string       `json:"product,omitempty"`
	Service         LoanService  `json:"service,omitempty"`
	Step            int          `json:"step,omitempty"`
	WaitingForApply bool         `json:"waiting_for_apply,omitempty"`
	Eligibility     Eligibility  `json:"eligibility"`
	Application     Application  `json:"application"`
}

func (l *LoanState) Reset() { *l = LoanState{} }

type Employment string

const (
	EmploymentGovernment Employment = "government"
	EmploymentPrivate    Employment = "private"
	EmploymentSelf       Employment = "self"
)

// Eligibility holds every figure a product table may collect.
type Eligibility struct {
	Age             int64      `json:"age,omitempty"`
	Income          int64      `json:"income,omitempty"`
	Employment      Employment `json:"employment,omitempty"`
	Experience      int64      `json:"experience,omitempty"`
	CreditScore     int64      `json:"credit_score,omitempty"`
	PropertyValue   int64      `json:"property_value,omitempty"`
	VehicleType     string     `json:"vehicle_type,omitempty"`
	VehiclePrice    int64      `json:"vehicle_price,omitempty"`
	GoldWeight      int64      `json:"gold_weight,omitempty"`
	GoldPurity      int64      `json:"gold_purity,omitempty"`
	GoldPrice       int64      `json:"gold_price,omitempty"`
	DepositAmount   int64      `json:"deposit_amount,omitempty"`
	CourseLocation  string     `json:"course_location,omitempty"`
	RequestedAmount int64      `json:"requested_amount,omitempty"`
	BusinessVintage int64      `json:"business_vintage,omitempty"`
	Turnover        int64      `json:"turnover,omitempty"`
	Purpose         string     `json:"purpose,omitempty"`
	BusinessType    string     `json:"business_type,omitempty"`
	Registered      bool       `json:"registered,omitempty"`
	InvoiceValue    int64      `json:"invoice_value,omitempty"`
	OverdraftType   string     `json:"overdraft_type,omitempty"`
	AccountActive   bool       `json:"account_active,omitempty"`
	AadhaarLinked   bool       `json:"aadhaar_linked,omitempty"`
	AverageBalance  int64      `json:"average_balance,omitempty"`
	AssetValue      int64      `json:"asset_value,omitempty"`
	EligibleAmount  int64      `json:"eligible_amount,omitempty"`
	Eligible        bool       `json:"eligible,omitempty"`
}

type ApplyStep int

const (
	ApplyStepNone ApplyStep = iota
	ApplyStepName
	ApplyStepIncome
	ApplyStepTaxID
	ApplyStepBusinessName
	ApplyStepGSTIN
	ApplyStepUpload
)

// freeText reports whether the step takes an arbitrary name, which may
// contain loan keywords.
func (s ApplyStep) freeText() bool {
	return s == ApplyStepName || s == ApplyStepBusinessName
}

// Application collects identity details once eligibility has passed.
// TaxID is the PAN for personal products and the GSTIN for business ones.
type Application struct {
	Step               ApplyStep `json:"step,omitempty"`
	Name               string    `json:"name,omitempty"`
	Income             int64     `json:"income,omitempty"`
	TaxID              string    `json:"tax_id,omitempty"`
	BusinessName       string    `json:"business_name,omitempty"`
	DocumentsConfirmed bool      `json:"documents_confirmed,omitempty"`
}

type AccountStep int

const (
	AccountStepNone AccountStep = iota
	AccountStepName
	AccountStepAge
	AccountStepType
	AccountStepAddress
	AccountStepNationalID
	AccountStepConfirm
)

type AccountState struct {
	Step       AccountStep `json:"step,omitempty"`
	Name       string      `json:"name,omitempty"`
	Age        int64       `json:"age,omitempty"`
	Type       string      `json:"type,omitempty"`
	Address    string      `json:"address,omitempty"`
	NationalID string      `json:"national_id,omitempty"`
}

func (a *AccountState) Reset() { *a = AccountState{} }

type TransferStep int

const (
	TransferStepNone TransferStep = iota
	TransferStepReceiver
	TransferStepAccount
	TransferStepAmount
	TransferStepMethod
)

type TransferState struct {
	Step            TransferStep `json:"step,omitempty"`
	ReceiverName    string       `json:"receiver_name,omitempty"`
	ReceiverAccount string       `json:"receiver_account,omitempty"`
	Amount          int64        `json:"amount,omitempty"`
}

func (t *TransferState) Reset() { *t = TransferState{} }
