package tissxml

import (
	"strings"
	"testing"
)

func validDoc(t *testing.T) string {
	t.Helper()
	doc, err := GerarXMLSADT(sadtRecord(), Options{})
	if err != nil {
		t.Fatalf("GerarXMLSADT: %v", err)
	}
	return doc
}

func issueMencionando(issues []Issue, frag string) bool {
	for _, i := range issues {
		if strings.Contains(i.Message, frag) || strings.Contains(i.Path, frag) {
			return true
		}
	}
	return false
}

func TestValidateHashAdulterado(t *testing.T) {
	doc := validDoc(t)
	adulterado := strings.Replace(doc, "Maria da Silva", "Jose da Silva", 1)
	res := ValidateXML([]byte(adulterado))
	if res.Valido {
		t.Fatal("tampered content should invalidate the hash")
	}
	if !issueMencionando(res.Erros, "hash") {
		t.Errorf("expected a hash error, got %+v", res.Erros)
	}
}

func TestValidatePadraoErrado(t *testing.T) {
	doc := strings.Replace(validDoc(t), "4.02.00", "3.05.00", 1)
	res := ValidateXML([]byte(doc))
	if res.Valido {
		t.Fatal("wrong Padrao should be invalid")
	}
	if !issueMencionando(res.Erros, "Padrao") {
		t.Errorf("expected a Padrao error, got %+v", res.Erros)
	}
}

func TestValidateValorMalFormatado(t *testing.T) {
	doc := strings.Replace(validDoc(t),
		"<ans:valorUnitario>25.00</ans:valorUnitario>",
		"<ans:valorUnitario>25,00</ans:valorUnitario>", 1)
	res := ValidateXML([]byte(doc))
	if res.Valido {
		t.Fatal("comma-separated money should be invalid")
	}
	if !issueMencionando(res.Erros, "D+.DD") {
		t.Errorf("expected a money format error, got %+v", res.Erros)
	}
}

func TestValidateDataMalFormatada(t *testing.T) {
	doc := strings.Replace(validDoc(t),
		"<ans:dataExecucao>2026-07-15</ans:dataExecucao>",
		"<ans:dataExecucao>15/07/2026</ans:dataExecucao>", 1)
	res := ValidateXML([]byte(doc))
	if res.Valido {
		t.Fatal("BR-formatted date should be invalid")
	}
}

func TestValidateTotaisInconsistentes(t *testing.T) {
	doc := strings.Replace(validDoc(t),
		"<ans:valorTotalGeral>58.50</ans:valorTotalGeral>",
		"<ans:valorTotalGeral>60.00</ans:valorTotalGeral>", 1)
	res := ValidateXML([]byte(doc))
	if res.Valido {
		t.Fatal("grand total inconsistent with categories should be invalid")
	}
	if !issueMencionando(res.Erros, "valorTotalGeral") {
		t.Errorf("expected a total consistency error, got %+v", res.Erros)
	}
}

func TestValidateSomaLinhasInconsistente(t *testing.T) {
	doc := validDoc(t)
	doc = strings.Replace(doc,
		"<ans:valorProcedimentos>58.50</ans:valorProcedimentos>",
		"<ans:valorProcedimentos>70.00</ans:valorProcedimentos>", 1)
	doc = strings.Replace(doc,
		"<ans:valorTotalGeral>58.50</ans:valorTotalGeral>",
		"<ans:valorTotalGeral>70.00</ans:valorTotalGeral>", 1)
	res := ValidateXML([]byte(doc))
	if res.Valido {
		t.Fatal("category total inconsistent with line sum should be invalid")
	}
	if !issueMencionando(res.Erros, "sum of lines") {
		t.Errorf("expected a line sum error, got %+v", res.Erros)
	}
}

func TestValidateAltoValorAviso(t *testing.T) {
	rec := sadtRecord()
	rec.Payload.SADT.Procedimentos[0].ValorUnitario = 8000.00
	rec.Payload.SADT.ComputarTotais()
	doc, err := GerarXMLSADT(rec, Options{})
	if err != nil {
		t.Fatalf("GerarXMLSADT: %v", err)
	}
	res := ValidateXML([]byte(doc))
	if !res.Valido {
		t.Fatalf("high value alone should stay valid, got %+v", res.Erros)
	}
	if !issueMencionando(res.Avisos, "exceeds") {
		t.Errorf("expected a high value warning, got %+v", res.Avisos)
	}
}

func TestValidateXMLMalformado(t *testing.T) {
	res := ValidateXML([]byte("<ans:mensagemTISS><unclosed>"))
	if res.Valido {
		t.Fatal("malformed XML should be invalid")
	}
}

func TestValidateDocumentoVazio(t *testing.T) {
	res := ValidateXML([]byte(""))
	if res.Valido {
		t.Fatal("empty document should be invalid")
	}
}
