// Package wallet provides the signing capability used by uploads and
// authenticated balance queries.
//
// Wallet is the interface the pipeline consumes. KeyFile implements it
// over an RSA-4096 key stored as a JSON Web Key, the format arweave
// wallets are exported in. Signing is serialized: a KeyFile handles one
// signing request at a time.
//
// Example:
//
//	w, err := wallet.Load("wallet.json")
//	if err != nil {
//	    return err
//	}
//	addr, _ := w.ActiveAddress(ctx)
//	raw, err := w.SignDataItem(ctx, payload, tags)
package wallet
