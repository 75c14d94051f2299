package controller

import (
	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/consts"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/txdetail"
)

// rowOptions carries the host preferences a row is rendered with
type rowOptions struct {
	address      string
	network      model.Network
	explorer     model.Explorer
	tip          *int64
	hideBalances bool
}

func optionsFrom(state model.HostState) rowOptions {
	return rowOptions{
		address:      state.PaymentAddress(),
		network:      state.Network,
		explorer:     state.Explorer,
		tip:          state.Tip,
		hideBalances: state.HideBalances,
	}
}

// buildRow renders one summary. Without a detail the row stays loading.
func buildRow(summary model.TxSummary, detail *model.TxDetail, opts rowOptions) (model.TxRow, error) {
	row := model.TxRow{
		TxHash:      summary.TxHash,
		BlockTime:   summary.BlockTime,
		BlockHeight: summary.BlockHeight,
		EpochNo:     summary.EpochNo,
		Loading:     detail == nil,
		ExplorerURL: opts.explorer.TxURL(opts.network, summary.TxHash),
	}
	if detail == nil {
		return row, nil
	}

	classified, err := txdetail.WithAddress(opts.address, detail.Inputs, detail.Outputs)
	if err != nil {
		return model.TxRow{}, errors.Wrapf(err, "classify %s", summary.TxHash)
	}

	confirmations := confirmationsOf(opts.tip, detail.BlockHeight)

	row.Type = classified.Type
	row.Label = classified.Label()
	row.Value = opts.amount(classified.Value)
	row.ValueADA = opts.ada(classified.Value)
	row.Assets = opts.amountAssets(classified.Assets)
	row.Fee = opts.amount(detail.Fee)
	row.FeeADA = opts.ada(detail.Fee)
	row.TotalOutput = opts.amount(detail.TotalOutput)
	row.BlockHash = detail.BlockHash
	row.BlockHeight = detail.BlockHeight
	row.EpochNo = detail.EpochNo
	row.EpochSlot = detail.EpochSlot
	row.AbsoluteSlot = detail.AbsoluteSlot
	row.TxTimestamp = detail.TxTimestamp
	row.TxBlockIndex = detail.TxBlockIndex
	row.TxSize = detail.TxSize
	row.Confirmations = confirmations
	row.ConfirmationLevel = model.ConfirmationLevelOf(confirmations)
	row.InvalidAfter = detail.InvalidAfter
	row.InvalidAfterTime = opts.network.SlotToUnixTime(detail.InvalidAfter)
	row.Inputs = opts.utxos(detail.Inputs)
	row.Outputs = opts.utxos(detail.Outputs)
	return row, nil
}

// confirmationsOf is zero until both the tip and the block are known
func confirmationsOf(tip *int64, blockHeight int64) int64 {
	if tip == nil || blockHeight <= 0 || *tip < blockHeight {
		return 0
	}
	return *tip - blockHeight
}

func (o rowOptions) amount(q model.Quantity) string {
	if o.hideBalances {
		return consts.HIDDEN_BALANCE
	}
	return q.String()
}

// ada renders lovelace as ADA
func (o rowOptions) ada(q model.Quantity) string {
	if o.hideBalances {
		return consts.HIDDEN_BALANCE
	}
	return q.Format(consts.ADA_DECIMALS)
}

func (o rowOptions) amountAssets(assets []model.AssetAmount) []model.RowAsset {
	if len(assets) == 0 {
		return nil
	}
	rows := make([]model.RowAsset, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, model.RowAsset{
			PolicyID:  a.PolicyID,
			AssetName: a.AssetName,
			Quantity:  o.amount(a.Quantity),
			Decimals:  a.Decimals,
		})
	}
	return rows
}

func (o rowOptions) utxos(utxos []model.UTXO) []model.RowUTXO {
	rows := make([]model.RowUTXO, 0, len(utxos))
	for _, u := range utxos {
		var assets []model.RowAsset
		for _, a := range u.AssetList {
			assets = append(assets, model.RowAsset{
				PolicyID:  a.PolicyID,
				AssetName: a.AssetName,
				Quantity:  o.amount(a.Quantity),
				Decimals:  a.Decimals,
			})
		}
		address := u.Address()
		rows = append(rows, model.RowUTXO{
			Address: address,
			TxHash:  u.TxHash,
			TxIndex: u.TxIndex,
			Value:   o.amount(u.Value),
			Assets:  assets,
			Own:     address != "" && address == o.address,
		})
	}
	return rows
}
