package domain

// RemessaRequest describes a CNAB remittance file: the issuing account plus
// the payments it carries.
type RemessaRequest struct {
	EmpresaMae       string
	DocumentoCedente string
	Agencia          string
	ContaCorrente    string

	DigitoConta       *string
	Convenio          *string
	Carteira          *string
	SequencialRemessa *int

	Pagamentos []Pagamento

	Extra map[string]any
}

// Pagamento is one payment inside a remessa. DataVencimento left nil is
// filled by the service with the processing date.
type Pagamento struct {
	NossoNumero     string
	Valor           float64
	Sacado          string
	SacadoDocumento string

	DataVencimento  *string
	NumeroDocumento *string
	DataDocumento   *string
	DataDesconto    *string
	ValorIOF        *float64
	ValorAbatimento *float64
	ValorDesconto   *float64
	ValorMora       *float64
	ValorMulta      *float64
	SacadoEndereco  *string
	SacadoCidade    *string
	SacadoUF        *string
	SacadoCEP       *string
	Instrucao1      *string
	Instrucao2      *string
	CodigoProtesto  *string
	DiasProtesto    *int

	Extra map[string]any
}

// RetornoRecord is one payment parsed out of a CNAB return file. Keys follow
// the service's field names (nosso_numero, valor_recebido, data_credito, ...);
// values are whatever JSON primitive the service produced, or nil.
type RetornoRecord map[string]any

// String returns the value under key when it is a string.
func (r RetornoRecord) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Number returns the value under key when it is a JSON number.
func (r RetornoRecord) Number(key string) (float64, bool) {
	f, ok := r[key].(float64)
	return f, ok
}
