package schema

import "github.com/xeipuuv/gojsonschema"

var (
	nullableString = map[string]any{"type": []string{"string", "null"}}
	nullableNumber = map[string]any{"type": []string{"number", "null"}}
	checkDigit     = map[string]any{"type": []string{"string", "number", "null"}} // text or integer, per bank
	stringList     = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
)

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

var boletoSchema = mustCompile(object(
	[]string{"bank", "nosso_numero", "codigo_barras", "valor", "cedente", "sacado"},
	map[string]any{
		"bank":                        map[string]any{"type": "string"},
		"nosso_numero":                map[string]any{"type": "string"},
		"codigo_barras":               map[string]any{"type": "string"},
		"valor":                       map[string]any{"type": "number"},
		"cedente":                     map[string]any{"type": "string"},
		"sacado":                      map[string]any{"type": "string"},
		"linha_digitavel":             nullableString,
		"nosso_numero_dv":             checkDigit,
		"agencia_conta_boleto":        nullableString,
		"codigo_barras_segunda_parte": nullableString,
		"carteira":                    nullableString,
		"numero_documento":            nullableString,
		"valor_documento":             nullableNumber,
		"data_vencimento":             nullableString,
		"data_documento":              nullableString,
		"data_processamento":          nullableString,
		"documento_cedente":           nullableString,
		"sacado_documento":            nullableString,
		"agencia":                     nullableString,
		"conta_corrente":              nullableString,
		"convenio":                    nullableString,
	},
))

var nossoNumeroSchema = mustCompile(object(
	[]string{"nosso_numero"},
	map[string]any{
		"nosso_numero":         map[string]any{"type": "string"},
		"nosso_numero_dv":      checkDigit,
		"codigo_barras":        nullableString,
		"linha_digitavel":      nullableString,
		"agencia_conta_boleto": nullableString,
	},
))

var validationSchema = mustCompile(object(
	[]string{"valid"},
	map[string]any{
		"valid":   map[string]any{"type": "boolean"},
		"message": nullableString,
	},
))

var healthSchema = mustCompile(object(
	[]string{"status"},
	map[string]any{
		"status":    map[string]any{"type": "string"},
		"timestamp": nullableString,
	},
))

var infoSchema = mustCompile(object(
	[]string{"name", "version"},
	map[string]any{
		"name":              map[string]any{"type": "string"},
		"version":           map[string]any{"type": "string"},
		"supported_banks":   stringList,
		"supported_formats": stringList,
		"cnab_types":        stringList,
	},
))

var retornoSchema = mustCompile(map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": []string{"string", "number", "boolean", "null"}},
	},
})

// Boleto checks a /api/boleto/data body.
func Boleto(body []byte) error { return validate(boletoSchema, gojsonschema.NewBytesLoader(body)) }

// NossoNumero checks a /api/boleto/nosso_numero body.
func NossoNumero(body []byte) error {
	return validate(nossoNumeroSchema, gojsonschema.NewBytesLoader(body))
}

// Validation checks a /api/boleto/validate body.
func Validation(body []byte) error {
	return validate(validationSchema, gojsonschema.NewBytesLoader(body))
}

// Health checks a /api/health body.
func Health(body []byte) error { return validate(healthSchema, gojsonschema.NewBytesLoader(body)) }

// Info checks a /api/info body.
func Info(body []byte) error { return validate(infoSchema, gojsonschema.NewBytesLoader(body)) }

// Retorno checks a /api/retorno body.
func Retorno(body []byte) error { return validate(retornoSchema, gojsonschema.NewBytesLoader(body)) }
