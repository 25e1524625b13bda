package models

// Funding sources accepted by wallet and reserve deposits.
const (
	SourceATM         = "ATM Withdrawal"
	SourceFromReserve = "Added from Reserve"
	SourceFromWallet  = "Added from Wallet"
	SourceOthers      = "Others"
)

// IsWalletSource reports whether s may fund a wallet deposit.
func IsWalletSource(s string) bool {
	switch s {
	case SourceATM, SourceFromReserve, SourceOthers:
		return true
	}
	return false
}

// IsReserveSource reports whether s may fund a reserve deposit.
func IsReserveSource(s string) bool {
	switch s {
	case SourceATM, SourceFromWallet, SourceOthers:
		return true
	}
	return false
}
