package entity

// Settings holds the merchant configuration for the gateway. It is passed
// explicitly to every operation so that several configurations may be in
// use at the same time.
type Settings struct {
	MerchantId  string `json:"merchant_id" bson:"merchant_id"`
	MerchantKey string `json:"merchant_key" bson:"merchant_key"`
	// Passphrase is optional; when set the redirect form is signed with it.
	Passphrase string `json:"passphrase" bson:"passphrase"`
	UseSandbox bool   `json:"use_sandbox" bson:"use_sandbox"`
	// AdditionalFee is a fixed amount or, when AdditionalFeePercentage is set,
	// a percentage of the order subtotal.
	AdditionalFee           float64 `json:"additional_fee" bson:"additional_fee"`
	AdditionalFeePercentage bool    `json:"additional_fee_percentage" bson:"additional_fee_percentage"`
}
