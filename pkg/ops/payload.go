package ops

import "github.com/vestwatch/vestwatch/pkg/amount"

// Payload is the typed body of an operation. Each recognised type has its
// own struct carrying only the fields the ledger reads; everything else
// decodes to NoEffect or Unknown.
type Payload interface {
	OpType() string
}

type AccountCreate struct {
	Fee            amount.Amount
	Creator        string
	NewAccountName string
}

func (AccountCreate) OpType() string { return TypeAccountCreate }

type AccountCreateWithDelegation struct {
	Fee            amount.Amount
	Delegation     amount.Amount
	Creator        string
	NewAccountName string
}

func (AccountCreateWithDelegation) OpType() string { return TypeAccountCreateWithDelegation }

type DelegateVestingShares struct {
	Delegator     string
	Delegatee     string
	VestingShares amount.Amount
}

func (DelegateVestingShares) OpType() string { return TypeDelegateVestingShares }

// ReturnVestingDelegation is the virtual op emitted when an undelegation
// cools down. It does not name the original delegatee.
type ReturnVestingDelegation struct {
	Account       string
	VestingShares amount.Amount
}

func (ReturnVestingDelegation) OpType() string { return TypeReturnVestingDelegation }

type Transfer struct {
	From   string
	To     string
	Amount amount.Amount
	Memo   string
}

func (Transfer) OpType() string { return TypeTransfer }

type FillOrder struct {
	CurrentOwner string
	CurrentPays  amount.Amount
	OpenOwner    string
	OpenPays     amount.Amount
}

func (FillOrder) OpType() string { return TypeFillOrder }

type FillConvertRequest struct {
	Owner     string
	AmountIn  amount.Amount
	AmountOut amount.Amount
}

func (FillConvertRequest) OpType() string { return TypeFillConvertRequest }

// TransferToVesting is a power up.
type TransferToVesting struct {
	From   string
	To     string
	Amount amount.Amount
}

func (TransferToVesting) OpType() string { return TypeTransferToVesting }

// FillVestingWithdraw settles one power down installment.
type FillVestingWithdraw struct {
	FromAccount string
	ToAccount   string
	Withdrawn   amount.Amount
	Deposited   amount.Amount
}

func (FillVestingWithdraw) OpType() string { return TypeFillVestingWithdraw }

type ClaimRewardBalance struct {
	Account     string
	RewardSteem amount.Amount
	RewardSBD   amount.Amount
	RewardVests amount.Amount
}

func (ClaimRewardBalance) OpType() string { return TypeClaimRewardBalance }

type CurationReward struct {
	Curator         string
	Reward          amount.Amount
	CommentAuthor   string
	CommentPermlink string
}

func (CurationReward) OpType() string { return TypeCurationReward }

type AuthorReward struct {
	Author        string
	Permlink      string
	SBDPayout     amount.Amount
	SteemPayout   amount.Amount
	VestingPayout amount.Amount
}

func (AuthorReward) OpType() string { return TypeAuthorReward }

// CommentBenefactorReward comes in two shapes: older nodes report a single
// VESTS Reward, newer ones split the payout like AuthorReward.
type CommentBenefactorReward struct {
	Benefactor    string
	Author        string
	Permlink      string
	Reward        *amount.Amount
	SBDPayout     amount.Amount
	SteemPayout   amount.Amount
	VestingPayout amount.Amount
}

func (CommentBenefactorReward) OpType() string { return TypeCommentBenefactorReward }

type ProducerReward struct {
	Producer      string
	VestingShares amount.Amount
}

func (ProducerReward) OpType() string { return TypeProducerReward }

type Vote struct {
	Voter    string
	Author   string
	Permlink string
	Weight   int
}

func (Vote) OpType() string { return TypeVote }

// NoEffect is any member of the closed set of types that never touch the ledger.
type NoEffect struct {
	Type string
}

func (p NoEffect) OpType() string { return p.Type }

// Unknown is any type outside the recognised set.
type Unknown struct {
	Type string
}

func (p Unknown) OpType() string { return p.Type }
