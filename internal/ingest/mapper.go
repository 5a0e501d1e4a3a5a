package ingest

import (
	"fmt"
	"strings"
)

// Field names a canonical order field. The value doubles as the storage
// column name.
type Field string

const (
	FieldOperation           Field = "operation"
	FieldOpportunityNumber   Field = "opportunity_number"
	FieldVTANumber           Field = "vta_number"
	FieldQuoteNumber         Field = "quote_number"
	FieldCircuitNumber       Field = "circuit_number"
	FieldQuoteStatus         Field = "quote_status"
	FieldProduct             Field = "product"
	FieldQuantity            Field = "quantity"
	FieldStatus              Field = "status"
	FieldGrossValue          Field = "gross_value"
	FieldCreatedOn           Field = "created_on"
	FieldOrderIssuer         Field = "order_issuer"
	FieldIssuerName          Field = "issuer_name"
	FieldAccountManager      Field = "account_manager"
	FieldSalesOrg            Field = "sales_org"
	FieldDistributionChannel Field = "distribution_channel"
	FieldActivitySector      Field = "activity_sector"
	FieldSDItem              Field = "sd_item"
	FieldProductID           Field = "product_id"
	FieldContractDuration    Field = "contract_duration"
)

type fieldSpec struct {
	field    Field
	header   string   // exact spreadsheet header (CARGA_PAINEL vocabulary)
	keywords []string // lowercase fragments for the substring pass
}

// fieldSpecs is the committed field iteration order. It decides which field
// claims an ambiguous header: quote_number and quote_status come before
// status so "Número da Cotação" and "Status cotação" are never swallowed by
// the plain status field.
var fieldSpecs = []fieldSpec{
	{FieldOperation, "Descrição d/operação", []string{"descrição d/operação", "descricao d/operacao", "descrição da operação", "operação", "operacao", "cliente"}},
	{FieldOpportunityNumber, "Número da Oportunidade", []string{"oportunidade"}},
	{FieldVTANumber, "Número da VTA", []string{"vta"}},
	{FieldQuoteNumber, "Número da Cotação", []string{"número da cotação", "numero da cotacao"}},
	{FieldCircuitNumber, "Número do Circuito", []string{"circuito"}},
	{FieldQuoteStatus, "Status cotação", []string{"status cotação", "status cotacao", "cotação", "cotacao"}},
	{FieldProduct, "Denominação produto", []string{"denominação", "denominacao", "produto", "serviço", "servico"}},
	{FieldQuantity, "Quantidade", []string{"quantidade", "qtd"}},
	{FieldStatus, "Status", []string{"status", "situação", "situacao"}},
	{FieldGrossValue, "Valor pedido bruto", []string{"valor"}},
	{FieldCreatedOn, "Criado em", []string{"criado", "data de criação", "data de criacao", "abertura"}},
	{FieldOrderIssuer, "Emissor da Ordem", []string{"emissor da ordem"}},
	{FieldIssuerName, "Nome do Emissor da Ordem", []string{"nome do emissor"}},
	{FieldAccountManager, "Nome do Gerente de Contas", []string{"gerente"}},
	{FieldSalesOrg, "Organização de Vendas", []string{"organização", "organizacao"}},
	{FieldDistributionChannel, "Canal de distribuição", []string{"canal"}},
	{FieldActivitySector, "Setor de atividade", []string{"setor"}},
	{FieldSDItem, "Item (SD)", []string{"item (sd)", "item sd"}},
	{FieldProductID, "ID produto", []string{"id produto", "id do produto"}},
	{FieldContractDuration, "Tempo de Contrato", []string{"contrato"}},
}

// Fields lists every canonical field in the committed iteration order.
func Fields() []Field {
	out := make([]Field, len(fieldSpecs))
	for i, s := range fieldSpecs {
		out[i] = s.field
	}
	return out
}

// Mapping resolves canonical fields to source column indexes.
type Mapping map[Field]int

// IncompleteMappingError reports required fields with no source column.
type IncompleteMappingError struct {
	Missing []Field
}

func (e *IncompleteMappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("required columns not found: %s", strings.Join(names, ", "))
}

// MapColumns resolves header strings to canonical fields. Exact header
// matches are claimed first, then a case-insensitive substring pass; each
// header feeds at most one field, first field wins. The second return value
// lists canonical fields with no match — absence of optional fields is
// expected, so this never fails.
func MapColumns(headers []string) (Mapping, []Field) {
	mapping := Mapping{}
	claimed := make([]bool, len(headers))

	for _, spec := range fieldSpecs {
		for i, h := range headers {
			if claimed[i] {
				continue
			}
			if strings.TrimSpace(h) == spec.header {
				mapping[spec.field] = i
				claimed[i] = true
				break
			}
		}
	}

	for _, spec := range fieldSpecs {
		if _, ok := mapping[spec.field]; ok {
			continue
		}
	scan:
		for i, h := range headers {
			if claimed[i] {
				continue
			}
			lower := strings.ToLower(strings.TrimSpace(h))
			for _, kw := range spec.keywords {
				if strings.Contains(lower, kw) {
					mapping[spec.field] = i
					claimed[i] = true
					break scan
				}
			}
		}
	}

	var missing []Field
	for _, spec := range fieldSpecs {
		if _, ok := mapping[spec.field]; !ok {
			missing = append(missing, spec.field)
		}
	}
	return mapping, missing
}
