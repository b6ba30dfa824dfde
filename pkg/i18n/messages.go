package i18n

import "golang.org/x/text/language"

// Confirmation keys returned by the ledger on successful mutations.
const (
	KeyTransferApproved = "ledger.transfer.approved"
	KeyReversalSuccess  = "ledger.reversal.success"
)

// Error codes share the catalog with confirmation keys; the English text of
// an error lives on the AppError itself and serves as the fallback.
var translations = map[language.Tag]map[string]string{
	language.English: {
		KeyTransferApproved: "Transaction approved successfully!",
		KeyReversalSuccess:  "Transfer successfully reversed!",
	},
	language.BrazilianPortuguese: {
		KeyTransferApproved: "Transação aprovada com sucesso!",
		KeyReversalSuccess:  "Transferência estornada com sucesso!",

		"VAL_001":  "Valor da transação inválido",
		"VAL_002":  "Número de conta inválido",
		"VAL_003":  "As contas de origem e destino não podem ser iguais",
		"VAL_004":  "O nome é obrigatório",
		"VAL_005":  "O CPF deve conter exatamente 11 dígitos",
		"VAL_006":  "O nome deve ter no máximo 120 caracteres",
		"NF_001":   "Número de conta incorreto!",
		"NF_002":   "Conta não encontrada!",
		"NF_003":   "Transação não encontrada!",
		"NF_004":   "Nenhuma conta encontrada para este ID!",
		"CON_001":  "Saldo insuficiente!",
		"CON_002":  "A transação não está aprovada ou já foi estornada.",
		"CON_003":  "Saldo insuficiente na conta de destino!",
		"CON_004":  "Não foi possível gerar um número de conta único",
		"CON_005":  "Chave de idempotência reutilizada com uma requisição diferente",
		"AUTH_001": "Token inválido ou expirado",
		"RATE_001": "Limite de requisições excedido",
		"SYS_001":  "Erro interno do servidor",
	},
}

// English returns the English text registered for key, or key itself.
func English(key string) string {
	if msg, ok := translations[language.English][key]; ok {
		return msg
	}
	return key
}
