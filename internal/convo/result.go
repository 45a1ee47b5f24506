package convo

import (
	"fmt"
	"strings"

	"bankbot/internal/entity"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Result is what a turn produces: the routed label, extracted entities, the
// reply text and a confidence in [0,1].
type Result struct {
	Label      string          `json:"label"`
	Entities   entity.Entities `json:"entities"`
	Reply      string          `json:"reply"`
	Confidence float64         `json:"confidence"`
}

// Labels emitted by rule paths.
const (
	LabelGreet              = "greet"
	LabelCancel             = "cancel"
	LabelUnknown            = "unknown"
	LabelError              = "error"
	LabelCardServices       = "card_services"
	LabelATMServices        = "atm_services"
	LabelCheckBalance       = "check_balance"
	LabelBalanceResult      = "balance_result"
	LabelTransferStart      = "transfer_start"
	LabelTransferStep       = "transfer_step"
	LabelTransferSuccess    = "transfer_success"
	LabelTransferFailed     = "transfer_failed"
	LabelLoanMenu           = "loan_menu"
	LabelLoanCategory       = "loan_category"
	LabelLoanProduct        = "loan_product"
	LabelEligibilityCheck   = "loan_eligibility_check"
	LabelEligibilityNeeded  = "loan_eligibility_required"
	LabelEligibilityStep    = "loan_eligibility_step"
	LabelEligibilityResult  = "loan_eligibility_result"
	LabelLoanRejected       = "loan_rejected"
	LabelLoanStatus         = "loan_status"
	LabelLoanStatusResult   = "loan_status_result"
	LabelApplyStart         = "loan_apply_start"
	LabelApplyStep          = "loan_apply_step"
	LabelApplySubmitted     = "loan_apply_submitted"
	LabelLoanDocuments      = "loan_documents"
	LabelCreditScoreInfo    = "cibil_info"
	LabelAccountOpen        = "account_open"
	LabelAccountOpenStep    = "account_open_step"
	LabelAccountSubmitted   = "account_open_submitted"
	LabelAccountRejected    = "account_open_rejected"
	LabelEMI                = "emi_calculator"
	LabelFAQ                = "faq"
	LabelThanks             = "thanks"
	LabelGoodbye            = "goodbye"
	LabelAcknowledge        = "acknowledge"
	LabelReject             = "reject"
	LabelHelp               = "help"
	LabelGeneralBankingInfo = "general_banking_info"
	LabelOutOfScope         = "out_of_scope"
)

// sentinelLabels mark rule outcomes the classifier may override.
var sentinelLabels = map[string]bool{
	LabelUnknown:            true,
	LabelGeneralBankingInfo: true,
	LabelOutOfScope:         true,
}

func formatINR(v int64) string {
	return "₹" + humanize.Comma(v)
}

func maskCard(last4 string) string {
	return "**** **** **** " + last4
}

func maskNationalID(id string) string {
	if len(id) < 4 {
		return id
	}
	return "**** **** " + id[len(id)-4:]
}

// newRef returns prefix followed by ten upper-case hex characters.
func newRef(prefix string) string {
	return fmt.Sprintf("%s%s", prefix, strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]))
}
