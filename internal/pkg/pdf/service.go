// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/purchase"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// GenerateReceipt generates a PDF receipt for a completed purchase
func (s *Service) GenerateReceipt(p *purchase.Purchase, buyerName string) (*bytes.Buffer, error) {
	items, err := p.DecodeItems()
	if err != nil {
		return nil, fmt.Errorf("failed to decode purchase items: %w", err)
	}

	data := ReceiptData{
		ReceiptNumber: fmt.Sprintf("RCPT-%s", p.PaymentRef),
		PurchaseDate:  p.PurchaseDate.Format("January 2, 2006"),
		BuyerName:     buyerName,
		Purchase:      p,
		Items:         items,
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Email:   s.config.App.SupportEmail,
			Website: s.config.App.Website,
		},
	}

	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func (s *Service) generateHTML(data ReceiptData) (string, error) {
	tmpl := template.Must(template.New("receipt").Parse(receiptTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string                   `json:"receipt_number"`
	PurchaseDate  string                   `json:"purchase_date"`
	BuyerName     string                   `json:"buyer_name"`
	Purchase      *purchase.Purchase       `json:"purchase"`
	Items         []purchase.PurchasedItem `json:"items"`
	Company       CompanyInfo              `json:"company"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Receipt HTML template
const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .company-info {
            flex: 1;
        }
        .receipt-info {
            text-align: right;
            flex: 1;
        }
        .receipt-title {
            font-size: 28px;
            font-weight: bold;
            color: #2563eb;
            margin-bottom: 10px;
        }
        .receipt-details {
            margin-bottom: 30px;
        }
        .receipt-details table {
            width: 100%;
        }
        .receipt-details td {
            padding: 5px 0;
            vertical-align: top;
        }
        .receipt-details .label {
            font-weight: bold;
            width: 150px;
        }
        .items-table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 30px;
        }
        .items-table th,
        .items-table td {
            border: 1px solid #ddd;
            padding: 12px 8px;
            text-align: left;
        }
        .items-table th {
            background-color: #f8f9fa;
            font-weight: bold;
        }
        .items-table .qty-col,
        .items-table .price-col,
        .items-table .total-col {
            text-align: right;
            width: 80px;
        }
        .totals {
            float: right;
            width: 300px;
        }
        .totals table {
            width: 100%;
            border-collapse: collapse;
        }
        .totals td {
            padding: 8px;
            border-bottom: 1px solid #eee;
        }
        .totals .total-row {
            font-weight: bold;
            font-size: 18px;
            border-top: 2px solid #333;
        }
        .footer {
            clear: both;
            margin-top: 60px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h2>{{.Company.Name}}</h2>
            <p>{{.Company.Email}}<br>{{.Company.Website}}</p>
        </div>
        <div class="receipt-info">
            <div class="receipt-title">RECEIPT</div>
            <p><strong>{{.ReceiptNumber}}</strong><br>{{.PurchaseDate}}</p>
        </div>
    </div>

    <div class="receipt-details">
        <table>
            <tr>
                <td class="label">Billed To:</td>
                <td>{{.BuyerName}}</td>
            </tr>
            <tr>
                <td class="label">Payment Status:</td>
                <td>{{.Purchase.PaymentStatus}}</td>
            </tr>
            <tr>
                <td class="label">Payment Reference:</td>
                <td>{{.Purchase.PaymentRef}}</td>
            </tr>
        </table>
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Template</th>
                <th class="qty-col">Qty</th>
                <th class="price-col">Unit Price</th>
                <th class="total-col">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Items}}
            <tr>
                <td>{{.Title}}</td>
                <td class="qty-col">{{.Quantity}}</td>
                <td class="price-col">${{printf "%.2f" .UnitPrice}}</td>
                <td class="total-col">${{printf "%.2f" .LineTotal}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr>
                <td>Subtotal:</td>
                <td style="text-align: right;">${{printf "%.2f" .Purchase.Subtotal}}</td>
            </tr>
            {{if gt .Purchase.Discount 0.0}}
            <tr>
                <td>Template Discounts:</td>
                <td style="text-align: right;">-${{printf "%.2f" .Purchase.Discount}}</td>
            </tr>
            {{end}}
            {{if .Purchase.PromoCode}}
            <tr>
                <td>Promo ({{.Purchase.PromoCode}}):</td>
                <td style="text-align: right;">-${{printf "%.2f" .Purchase.PromoDiscount}}</td>
            </tr>
            {{end}}
            <tr class="total-row">
                <td>Total Paid:</td>
                <td style="text-align: right;">${{printf "%.2f" .Purchase.TotalAmount}}</td>
            </tr>
        </table>
    </div>

    <div class="footer">
        <p>Thank you for your purchase! Your templates are available in your download library.</p>
        <p>{{.Company.Name}} &bull; {{.Company.Website}}</p>
    </div>
</body>
</html>
`
