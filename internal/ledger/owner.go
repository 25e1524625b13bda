package ledger

// OwnerKind distinguishes the two kinds of balance the ledger maintains.
type OwnerKind string

const (
	OwnerWallet  OwnerKind = "wallet"
	OwnerReserve OwnerKind = "reserve"
)

// Owner identifies one balance: a user's wallet or the shared reserve.
type Owner struct {
	Kind   OwnerKind
	UserID string
}

// WalletOwner returns the owner key of userID's wallet.
func WalletOwner(userID string) Owner {
	return Owner{Kind: OwnerWallet, UserID: userID}
}

// ReserveOwner returns the owner key of the reserve fund.
func ReserveOwner() Owner {
	return Owner{Kind: OwnerReserve}
}

// IsReserve reports whether o is the reserve fund.
func (o Owner) IsReserve() bool {
	return o.Kind == OwnerReserve
}

// String returns the lock key of o.
func (o Owner) String() string {
	if o.IsReserve() {
		return string(OwnerReserve)
	}
	return string(OwnerWallet) + ":" + o.UserID
}
