package entity

type LocaleResource struct {
	Name  string `json:"name" bson:"name"`
	Value string `json:"value" bson:"value"`
}

const ResourcePaymentMethodDescription = "Plugins.Payments.PayFast.PaymentMethodDescription"

// LocaleResources are the strings installed with the plugin.
func LocaleResources() []LocaleResource {
	return []LocaleResource{
		{"Plugins.Payments.PayFast.Fields.AdditionalFee", "Additional fee"},
		{"Plugins.Payments.PayFast.Fields.AdditionalFee.Hint", "Enter additional fee to charge your customers."},
		{"Plugins.Payments.PayFast.Fields.AdditionalFeePercentage", "Additional fee. Use percentage"},
		{"Plugins.Payments.PayFast.Fields.AdditionalFeePercentage.Hint", "Determines whether to apply a percentage additional fee to the order total. If not enabled, a fixed value is used."},
		{"Plugins.Payments.PayFast.Fields.MerchantId", "Merchant ID"},
		{"Plugins.Payments.PayFast.Fields.MerchantId.Hint", "Specify merchant ID."},
		{"Plugins.Payments.PayFast.Fields.MerchantKey", "Merchant key"},
		{"Plugins.Payments.PayFast.Fields.MerchantKey.Hint", "Specify merchant key."},
		{"Plugins.Payments.PayFast.Fields.UseSandbox", "Use Sandbox"},
		{"Plugins.Payments.PayFast.Fields.UseSandbox.Hint", "Check to enable Sandbox (testing environment)."},
		{"Plugins.Payments.PayFast.RedirectionTip", "You will be redirected to PayFast site to complete the order."},
		{ResourcePaymentMethodDescription, "You will be redirected to PayFast site to complete the order."},
	}
}
