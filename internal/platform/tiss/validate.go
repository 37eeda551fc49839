package tiss

import "fmt"

// ValidateGuia checks the structural rules the generators rely on and
// returns one human-readable message per violation. An empty slice
// means the guia can be rendered; it does not guarantee ANS acceptance.
func ValidateGuia(g Guia) []string {
	var errs []string

	if g.NumeroGuia == "" {
		errs = append(errs, "Número da guia é obrigatório")
	}
	if g.RegistroANS == "" {
		errs = append(errs, "Registro ANS da operadora é obrigatório")
	} else if len(g.RegistroANS) > WidthRegistroANS {
		errs = append(errs, fmt.Sprintf("Registro ANS deve ter no máximo %d dígitos", WidthRegistroANS))
	}
	if g.NumeroCarteira == "" {
		errs = append(errs, "Número da carteira do beneficiário é obrigatório")
	}
	if g.NomeBeneficiario == "" {
		errs = append(errs, "Nome do beneficiário é obrigatório")
	}
	if g.CodigoPrestador == "" {
		errs = append(errs, "Código do prestador na operadora é obrigatório")
	}
	if g.NomeProfissional == "" {
		errs = append(errs, "Nome do profissional executante é obrigatório")
	}
	if g.ConselhoProfissional == "" || g.NumeroConselho == "" {
		errs = append(errs, "Conselho e número do conselho do profissional são obrigatórios")
	}
	if g.DataAtendimento.IsZero() {
		errs = append(errs, "Data do atendimento é obrigatória")
	}

	if len(g.Procedimentos) == 0 {
		errs = append(errs, "A guia deve ter ao menos um procedimento")
	}
	for i, p := range g.Procedimentos {
		if p.Codigo == "" {
			errs = append(errs, fmt.Sprintf("Procedimento %d: código é obrigatório", i+1))
		}
		if p.Quantidade <= 0 {
			errs = append(errs, fmt.Sprintf("Procedimento %d: quantidade deve ser positiva", i+1))
		}
		if p.ValorUnitario < 0 {
			errs = append(errs, fmt.Sprintf("Procedimento %d: valor unitário não pode ser negativo", i+1))
		}
	}

	if g.ValorTotal < 0 {
		errs = append(errs, "Valor total da guia não pode ser negativo")
	}

	return errs
}

// CalculateTotals recomputes every procedure line total and the guia
// total from quantities and unit values, rounding each line to cents
// before summing.
func CalculateTotals(g *Guia) {
	var total float64
	for i := range g.Procedimentos {
		p := &g.Procedimentos[i]
		p.ValorTotal = Round2(float64(p.Quantidade) * p.ValorUnitario)
		total += p.ValorTotal
	}
	g.ValorTotal = Round2(total)
}
