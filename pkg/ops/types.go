package ops

// Operation type names as reported by account history.
const (
	TypeVote                        = "vote"
	TypeComment                     = "comment"
	TypeTransfer                    = "transfer"
	TypeTransferToVesting           = "transfer_to_vesting"
	TypeWithdrawVesting             = "withdraw_vesting"
	TypeLimitOrderCreate            = "limit_order_create"
	TypeLimitOrderCancel            = "limit_order_cancel"
	TypeFeedPublish                 = "feed_publish"
	TypeConvert                     = "convert"
	TypeAccountCreate               = "account_create"
	TypeAccountUpdate               = "account_update"
	TypeWitnessUpdate               = "witness_update"
	TypeAccountWitnessVote          = "account_witness_vote"
	TypeAccountWitnessProxy         = "account_witness_proxy"
	TypePow                         = "pow"
	TypeCustom                      = "custom"
	TypeReportOverProduction        = "report_over_production"
	TypeDeleteComment               = "delete_comment"
	TypeCustomJSON                  = "custom_json"
	TypeCommentOptions              = "comment_options"
	TypeSetWithdrawVestingRoute     = "set_withdraw_vesting_route"
	TypeLimitOrderCreate2           = "limit_order_create2"
	TypeClaimAccount                = "claim_account"
	TypeCreateClaimedAccount        = "create_claimed_account"
	TypeRequestAccountRecovery      = "request_account_recovery"
	TypeRecoverAccount              = "recover_account"
	TypeChangeRecoveryAccount       = "change_recovery_account"
	TypeEscrowTransfer              = "escrow_transfer"
	TypeEscrowDispute               = "escrow_dispute"
	TypeEscrowRelease               = "escrow_release"
	TypePow2                        = "pow2"
	TypeEscrowApprove               = "escrow_approve"
	TypeTransferToSavings           = "transfer_to_savings"
	TypeTransferFromSavings         = "transfer_from_savings"
	TypeCancelTransferFromSavings   = "cancel_transfer_from_savings"
	TypeCustomBinary                = "custom_binary"
	TypeDeclineVotingRights         = "decline_voting_rights"
	TypeResetAccount                = "reset_account"
	TypeSetResetAccount             = "set_reset_account"
	TypeClaimRewardBalance          = "claim_reward_balance"
	TypeDelegateVestingShares       = "delegate_vesting_shares"
	TypeAccountCreateWithDelegation = "account_create_with_delegation"
	TypeWitnessSetProperties        = "witness_set_properties"
	TypeFillConvertRequest          = "fill_convert_request"
	TypeAuthorReward                = "author_reward"
	TypeCurationReward              = "curation_reward"
	TypeCommentReward               = "comment_reward"
	TypeLiquidityReward             = "liquidity_reward"
	TypeInterest                    = "interest"
	TypeFillVestingWithdraw         = "fill_vesting_withdraw"
	TypeFillOrder                   = "fill_order"
	TypeShutdownWitness             = "shutdown_witness"
	TypeFillTransferFromSavings     = "fill_transfer_from_savings"
	TypeHardfork                    = "hardfork"
	TypeCommentPayoutUpdate         = "comment_payout_update"
	TypeReturnVestingDelegation     = "return_vesting_delegation"
	TypeCommentBenefactorReward     = "comment_benefactor_reward"
	TypeProducerReward              = "producer_reward"
)

// KnownTypes lists every operation type the chain defines, in operation id
// order. Statistics are reported for all of them, even when zero.
var KnownTypes = []string{
	TypeVote,
	TypeComment,
	TypeTransfer,
	TypeTransferToVesting,
	TypeWithdrawVesting,
	TypeLimitOrderCreate,
	TypeLimitOrderCancel,
	TypeFeedPublish,
	TypeConvert,
	TypeAccountCreate,
	TypeAccountUpdate,
	TypeWitnessUpdate,
	TypeAccountWitnessVote,
	TypeAccountWitnessProxy,
	TypePow,
	TypeCustom,
	TypeReportOverProduction,
	TypeDeleteComment,
	TypeCustomJSON,
	TypeCommentOptions,
	TypeSetWithdrawVestingRoute,
	TypeLimitOrderCreate2,
	TypeClaimAccount,
	TypeCreateClaimedAccount,
	TypeRequestAccountRecovery,
	TypeRecoverAccount,
	TypeChangeRecoveryAccount,
	TypeEscrowTransfer,
	TypeEscrowDispute,
	TypeEscrowRelease,
	TypePow2,
	TypeEscrowApprove,
	TypeTransferToSavings,
	TypeTransferFromSavings,
	TypeCancelTransferFromSavings,
	TypeCustomBinary,
	TypeDeclineVotingRights,
	TypeResetAccount,
	TypeSetResetAccount,
	TypeClaimRewardBalance,
	TypeDelegateVestingShares,
	TypeAccountCreateWithDelegation,
	TypeWitnessSetProperties,
	TypeFillConvertRequest,
	TypeAuthorReward,
	TypeCurationReward,
	TypeCommentReward,
	TypeLiquidityReward,
	TypeInterest,
	TypeFillVestingWithdraw,
	TypeFillOrder,
	TypeShutdownWitness,
	TypeFillTransferFromSavings,
	TypeHardfork,
	TypeCommentPayoutUpdate,
	TypeReturnVestingDelegation,
	TypeCommentBenefactorReward,
	TypeProducerReward,
}

// noEffectTypes are recognised but never change the ledger.
var noEffectTypes = map[string]struct{}{
	TypeComment:                {},
	TypeFeedPublish:            {},
	TypeShutdownWitness:        {},
	TypeAccountWitnessVote:     {},
	TypeWitnessUpdate:          {},
	TypeCustomJSON:             {},
	TypeLimitOrderCreate:       {},
	TypeAccountUpdate:          {},
	TypeAccountWitnessProxy:    {},
	TypeLimitOrderCancel:       {},
	TypeCommentOptions:         {},
	TypeDeleteComment:          {},
	TypeInterest:               {},
	TypeRecoverAccount:         {},
	TypePow:                    {},
	TypeConvert:                {},
	TypeRequestAccountRecovery: {},
}

// IsNoEffect reports whether typ belongs to the closed no-effect set.
func IsNoEffect(typ string) bool {
	_, ok := noEffectTypes[typ]
	return ok
}
