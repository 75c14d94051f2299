// Package txdetail classifies a transaction from the point of view of one
// wallet address and aggregates the amounts that matter to that wallet.
package txdetail

import (
	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

// WithAddress classifies a transaction relative to address.
//
// A transaction with any input from another address is a receive; otherwise
// any output to another address makes it a send; otherwise it is internal.
// The value and assets are summed over the outputs relevant to that
// direction: foreign outputs for a send, own outputs for a receive, all
// outputs for an internal transfer.
func WithAddress(address string, inputs, outputs []model.UTXO) (model.ClassifiedTx, error) {
	txType := classify(address, inputs, outputs)
	relevant := relevantOutputs(txType, address, outputs)

	value, err := sumValue(relevant)
	if err != nil {
		return model.ClassifiedTx{}, errors.Wrap(err, "sum output value")
	}

	assets, err := sumAssets(relevant)
	if err != nil {
		return model.ClassifiedTx{}, errors.Wrap(err, "sum output assets")
	}

	return model.ClassifiedTx{
		Type:   txType,
		Value:  value,
		Assets: assets,
	}, nil
}

// input precedence: a foreign input wins over a foreign output
func classify(address string, inputs, outputs []model.UTXO) model.TxType {
	if anyForeign(address, inputs) {
		return model.TxTypeReceive
	}
	if anyForeign(address, outputs) {
		return model.TxTypeSend
	}
	return model.TxTypeInternal
}

func anyForeign(address string, utxos []model.UTXO) bool {
	for _, u := range utxos {
		if u.Address() != address {
			return true
		}
	}
	return false
}

func relevantOutputs(txType model.TxType, address string, outputs []model.UTXO) []model.UTXO {
	switch txType {
	case model.TxTypeSend:
		return filter(outputs, func(u model.UTXO) bool { return u.Address() != address })
	case model.TxTypeReceive:
		return filter(outputs, func(u model.UTXO) bool { return u.Address() == address })
	default:
		return outputs
	}
}

func filter(utxos []model.UTXO, keep func(model.UTXO) bool) []model.UTXO {
	out := make([]model.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

func sumValue(utxos []model.UTXO) (model.Quantity, error) {
	var total model.Quantity
	for _, u := range utxos {
		next, err := total.Add(u.Value)
		if err != nil {
			return model.Quantity{}, err
		}
		total = next
	}
	return total, nil
}

type assetKey struct {
	policyID  string
	assetName string
}

// sumAssets merges entries sharing (policy_id, asset_name), keeping the
// order in which each asset was first seen and its first decimals.
func sumAssets(utxos []model.UTXO) ([]model.AssetAmount, error) {
	assets := []model.AssetAmount{}
	index := map[assetKey]int{}

	for _, u := range utxos {
		for _, a := range u.AssetList {
			key := assetKey{policyID: a.PolicyID, assetName: a.AssetName}
			i, ok := index[key]
			if !ok {
				index[key] = len(assets)
				assets = append(assets, model.AssetAmount{
					PolicyID:  a.PolicyID,
					AssetName: a.AssetName,
					Quantity:  a.Quantity,
					Decimals:  a.Decimals,
				})
				continue
			}

			merged, err := assets[i].Quantity.Add(a.Quantity)
			if err != nil {
				return nil, errors.Wrapf(err, "asset %s.%s", a.PolicyID, a.AssetName)
			}
			assets[i].Quantity = merged
		}
	}

	return assets, nil
}
