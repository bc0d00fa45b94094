package domain

// Classification is the security gate decision.
type Classification string

const (
	ClassPass   Classification = "pass"
	ClassFlag   Classification = "flag"
	ClassReject Classification = "reject"
)

// Security flags reported in SecurityVerdict.Flags.
const (
	FlagHoneypot        = "honeypot"
	FlagMintable        = "mintable"
	FlagFreezable       = "freezable"
	FlagTransferFee     = "transfer_fee"
	FlagNonTransferable = "non_transferable"
	FlagMutableBalance  = "balance_mutable"
	FlagConcentration   = "holder_concentration"
)

// SecurityVerdict is the normalized provider assessment of a token.
type SecurityVerdict struct {
	Address        string
	Score          int     // 0..100, 100 = clean
	TopHolderPct   float64 // share of supply held by the largest holders, percent
	Honeypot       bool
	Flags          []string
	Classification Classification
}
