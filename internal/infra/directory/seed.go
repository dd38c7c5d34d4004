package directory

import "github.com/loanease/loanease-go/internal/domain"

// seedCustomers returns the synthetic customer book. Phone values are kept
// verbatim from the CRM export, quirks included, since identification
// matches them by exact string.
func seedCustomers() []*domain.Customer {
	return []*domain.Customer{
		{
			ID:             "CUST001",
			Name:           "Vikrant Yadav",
			Phone:          "1003456",
			Email:          "vikrantyadav162@gmail.com",
			Age:            35,
			City:           "Varanasi",
			Address:        "123, Durgakund, Varanasi, Uttar Pradesh 233321",
			PANNumber:      "ABCPK1234A",
			AadharNumber:   "1234-5678-9012",
			EmploymentType: "salaried",
			MonthlyIncome:  80000,
			Employer:       "Tata Consultancy Services",
			ExistingLoans: []domain.ExistingLoan{
				{Type: "Home Loan", Amount: 2500000, EMI: 22000, RemainingTenure: 120},
			},
			PreApprovedLimit: 500000,
			CreditScore:      780,
			KYCVerified:      true,
		},
		{
			ID:               "CUST002",
			Name:             "Priya Sharma",
			Phone:            "(9876564328)",
			Email:            "priya.sharma@email.com",
			Age:              28,
			City:             "Bangalore",
			Address:          "45, Koramangala 5th Block, Bangalore, Karnataka 560095",
			PANNumber:        "DEFPS5678B",
			AadharNumber:     "2345-6789-0123",
			EmploymentType:   "salaried",
			MonthlyIncome:    120000,
			Employer:         "Infosys Limited",
			ExistingLoans:    []domain.ExistingLoan{},
			PreApprovedLimit: 800000,
			CreditScore:      820,
			KYCVerified:      true,
		},
		{
			ID:             "CUST004",
			Name:           "Sunita Reddy",
			Phone:          "9876543213",
			Email:          "sunita.reddy@email.com",
			Age:            31,
			City:           "Hyderabad",
			Address:        "234, Banjara Hills, Hyderabad, Telangana 500034",
			PANNumber:      "JKLSR3456D",
			AadharNumber:   "4567-8901-2345",
			EmploymentType: "salaried",
			MonthlyIncome:  95000,
			Employer:       "Amazon India",
			ExistingLoans: []domain.ExistingLoan{
				{Type: "Car Loan", Amount: 500000, EMI: 12000, RemainingTenure: 36},
			},
			PreApprovedLimit: 600000,
			CreditScore:      795,
			KYCVerified:      true,
		},
		{
			ID:               "CUST005",
			Name:             "Vikram Singh",
			Phone:            "9876543214",
			Email:            "vikram.singh@email.com",
			Age:              45,
			City:             "Delhi",
			Address:          "567, Connaught Place, New Delhi 110001",
			PANNumber:        "MNUVS7890E",
			AadharNumber:     "5678-9012-3456",
			EmploymentType:   "salaried",
			MonthlyIncome:    150000,
			Employer:         "HDFC Bank",
			ExistingLoans:    []domain.ExistingLoan{},
			PreApprovedLimit: 1200000,
			CreditScore:      840,
			KYCVerified:      true,
		},
		{
			ID:               "CUST006",
			Name:             "Meera Iyer",
			Phone:            "9876543215",
			Email:            "meera.iyer@email.com",
			Age:              29,
			City:             "Chennai",
			Address:          "89, T. Nagar, Chennai, Tamil Nadu 600017",
			PANNumber:        "OPQMI1234F",
			AadharNumber:     "6789-0123-4567",
			EmploymentType:   "salaried",
			MonthlyIncome:    75000,
			Employer:         "Zoho Corporation",
			ExistingLoans:    []domain.ExistingLoan{},
			PreApprovedLimit: 400000,
			CreditScore:      760,
			KYCVerified:      true,
		},
		{
			ID:             "CUST007",
			Name:           "Arjun Nair",
			Phone:          "9876543216",
			Email:          "arjun.nair@email.com",
			Age:            38,
			City:           "Kochi",
			Address:        "12, Marine Drive, Kochi, Kerala 682031",
			PANNumber:      "RSTAN5678G",
			AadharNumber:   "7890-1234-5678",
			EmploymentType: "self-employed",
			MonthlyIncome:  180000,
			ExistingLoans: []domain.ExistingLoan{
				{Type: "Personal Loan", Amount: 300000, EMI: 15000, RemainingTenure: 18},
			},
			PreApprovedLimit: 700000,
			CreditScore:      720,
			KYCVerified:      true,
		},
		{
			ID:               "CUST008",
			Name:             "Neha Gupta",
			Phone:            "9876543217",
			Email:            "neha.gupta@email.com",
			Age:              33,
			City:             "Pune",
			Address:          "456, Koregaon Park, Pune, Maharashtra 411001",
			PANNumber:        "UVWNG9012H",
			AadharNumber:     "8901-2345-6789",
			EmploymentType:   "salaried",
			MonthlyIncome:    110000,
			Employer:         "Wipro Limited",
			ExistingLoans:    []domain.ExistingLoan{},
			PreApprovedLimit: 900000,
			CreditScore:      810,
			KYCVerified:      true,
		},
	}
}
