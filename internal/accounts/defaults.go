package accounts

import "github.com/coopbooks/coopbooks/internal/model"

// DefaultChart returns the default chart of accounts for a chart name.
func DefaultChart(chart string) []model.Account {
	switch chart {
	case "savings_cooperative":
		return savingsCooperativeChart()
	default:
		return savingsCooperativeChart()
	}
}

// The codes below line up with config.Default's posting map.
func savingsCooperativeChart() []model.Account {
	return []model.Account{
		{Code: "1010", Name: "Cash on Hand", Category: model.CategoryAsset, Description: "Treasurer's cash box"},
		{Code: "1020", Name: "Bank Account", Category: model.CategoryAsset, Description: "Cooperative bank account"},
		{Code: "2010", Name: "Accounts Payable", Category: model.CategoryLiability},
		{Code: "2020", Name: "Accrued Expenses", Category: model.CategoryLiability},
		{Code: "3010", Name: "Retained Surplus", Category: model.CategoryEquity, Description: "Undistributed surplus of prior years"},
		{Code: "3020", Name: "Statutory Reserve", Category: model.CategoryEquity},
		{Code: "4010", Name: "Loan Interest Income", Category: model.CategoryRevenue},
		{Code: "4020", Name: "Fines and Penalties", Category: model.CategoryRevenue},
		{Code: "4090", Name: "Other Income", Category: model.CategoryRevenue},
		{Code: "5010", Name: "Office Supplies", Category: model.CategoryExpense},
		{Code: "5020", Name: "Meeting Expenses", Category: model.CategoryExpense},
		{Code: "5030", Name: "Bank Charges", Category: model.CategoryExpense},
		{Code: "5090", Name: "Other Expenses", Category: model.CategoryExpense},
	}
}
