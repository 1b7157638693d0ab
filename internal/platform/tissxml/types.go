package tissxml

import "encoding/xml"

// ANSNamespace is the TISS schema namespace.
const ANSNamespace = "http://www.ans.gov.br/padroes/tiss/schemas"

// PadraoTISS is the supported standard version.
const PadraoTISS = "4.02.00"

// Transaction types used on outbound messages.
const (
	TransacaoEnvioLote = "ENVIO_LOTE_GUIAS"
)

// The wire structs below bake the ans: prefix into their tags. Go's xml
// encoder does not emit namespace prefixes on its own, so the prefix is part
// of the element name and the namespace is declared as a plain attribute on
// the root.

// MensagemTISS is the root envelope of every TISS exchange.
type MensagemTISS struct {
	XMLName  xml.Name `xml:"ans:mensagemTISS"`
	XmlnsAns string   `xml:"xmlns:ans,attr"`

	Cabecalho             Cabecalho              `xml:"ans:cabecalho"`
	PrestadorParaOperadora *PrestadorParaOperadora `xml:"ans:prestadorParaOperadora"`
	Epilogo               Epilogo                `xml:"ans:epilogo"`
}

type Cabecalho struct {
	IdentificacaoTransacao IdentificacaoTransacao `xml:"ans:identificacaoTransacao"`
	Origem                 Origem                 `xml:"ans:origem"`
	Destino                Destino                `xml:"ans:destino"`
	Padrao                 string                 `xml:"ans:Padrao"`
}

type IdentificacaoTransacao struct {
	TipoTransacao         string `xml:"ans:tipoTransacao"`
	SequencialTransacao   string `xml:"ans:sequencialTransacao"`
	DataRegistroTransacao string `xml:"ans:dataRegistroTransacao"`
	HoraRegistroTransacao string `xml:"ans:horaRegistroTransacao"`
}

type Origem struct {
	IdentificacaoPrestador IdentificacaoPrestador `xml:"ans:identificacaoPrestador"`
}

type IdentificacaoPrestador struct {
	CodigoPrestadorNaOperadora string `xml:"ans:codigoPrestadorNaOperadora"`
}

type Destino struct {
	RegistroANS string `xml:"ans:registroANS"`
}

type PrestadorParaOperadora struct {
	LoteGuias LoteGuias `xml:"ans:loteGuias"`
}

type LoteGuias struct {
	NumeroLote string     `xml:"ans:numeroLote"`
	GuiasTISS  GuiasTISS  `xml:"ans:guiasTISS"`
}

type GuiasTISS struct {
	GuiasConsulta []GuiaConsultaXML `xml:"ans:guiaConsulta"`
	GuiasSADT     []GuiaSADTXML     `xml:"ans:guiaSP-SADT"`
}

type Epilogo struct {
	Hash string `xml:"ans:hash"`
}

// GuiaConsultaXML is the consultation claim body.
type GuiaConsultaXML struct {
	CabecalhoGuia   CabecalhoGuia   `xml:"ans:cabecalhoConsulta"`
	Beneficiario    BeneficiarioXML `xml:"ans:dadosBeneficiario"`
	Contratado      ContratadoXML   `xml:"ans:contratadoExecutante"`
	Profissional    ProfissionalXML `xml:"ans:profissionalExecutante"`
	DadosAtendimento DadosAtendimento `xml:"ans:dadosAtendimento"`
}

type CabecalhoGuia struct {
	RegistroANS         string `xml:"ans:registroANS"`
	NumeroGuiaPrestador string `xml:"ans:numeroGuiaPrestador"`
}

type BeneficiarioXML struct {
	NumeroCarteira   string `xml:"ans:numeroCarteira"`
	NomeBeneficiario string `xml:"ans:nomeBeneficiario"`
	NumeroCNS        string `xml:"ans:numeroCNS,omitempty"`
}

type ContratadoXML struct {
	CodigoPrestadorNaOperadora string `xml:"ans:codigoPrestadorNaOperadora"`
	NomeContratado             string `xml:"ans:nomeContratado"`
	CNES                       string `xml:"ans:CNES,omitempty"`
}

type ProfissionalXML struct {
	NomeProfissional     string `xml:"ans:nomeProfissional"`
	ConselhoProfissional string `xml:"ans:conselhoProfissional,omitempty"`
	NumeroConselho       string `xml:"ans:numeroConselhoProfissional,omitempty"`
	UF                   string `xml:"ans:UF,omitempty"`
	CBOS                 string `xml:"ans:CBOS,omitempty"`
}

type DadosAtendimento struct {
	DataAtendimento   string         `xml:"ans:dataAtendimento"`
	TipoConsulta      string         `xml:"ans:tipoConsulta"`
	Procedimento      ProcedimentoXML `xml:"ans:procedimento"`
	IndicacaoAcidente string         `xml:"ans:indicacaoAcidente"`
}

type ProcedimentoXML struct {
	CodigoTabela       string `xml:"ans:codigoTabela"`
	CodigoProcedimento string `xml:"ans:codigoProcedimento"`
	Descricao          string `xml:"ans:descricaoProcedimento,omitempty"`
	ValorProcedimento  string `xml:"ans:valorProcedimento,omitempty"`
}

// GuiaSADTXML is the SP-SADT claim body.
type GuiaSADTXML struct {
	CabecalhoGuia           CabecalhoGuia            `xml:"ans:cabecalhoGuia"`
	Beneficiario            BeneficiarioXML          `xml:"ans:dadosBeneficiario"`
	Solicitante             SolicitanteXML           `xml:"ans:dadosSolicitante"`
	Solicitacao             SolicitacaoXML           `xml:"ans:dadosSolicitacao"`
	Executante              ExecutanteXML            `xml:"ans:dadosExecutante"`
	ProcedimentosExecutados []ProcedimentoExecutado  `xml:"ans:procedimentosExecutados>ans:procedimentoExecutado"`
	ValorTotal              ValorTotalXML            `xml:"ans:valorTotal"`
}

type SolicitanteXML struct {
	Contratado   ContratadoXML   `xml:"ans:contratadoSolicitante"`
	Profissional ProfissionalXML `xml:"ans:profissionalSolicitante"`
}

type SolicitacaoXML struct {
	DataSolicitacao    string `xml:"ans:dataSolicitacao"`
	CaraterAtendimento string `xml:"ans:caraterAtendimento"`
	IndicacaoClinica   string `xml:"ans:indicacaoClinica,omitempty"`
}

type ExecutanteXML struct {
	Contratado ContratadoXML `xml:"ans:contratadoExecutante"`
}

type ProcedimentoExecutado struct {
	DataExecucao        string          `xml:"ans:dataExecucao"`
	HoraInicial         string          `xml:"ans:horaInicial,omitempty"`
	HoraFinal           string          `xml:"ans:horaFinal,omitempty"`
	Procedimento        ProcedimentoXML `xml:"ans:procedimento"`
	QuantidadeExecutada string          `xml:"ans:quantidadeExecutada"`
	ValorUnitario       string          `xml:"ans:valorUnitario"`
	ValorTotal          string          `xml:"ans:valorTotal"`
}

type ValorTotalXML struct {
	ValorProcedimentos string `xml:"ans:valorProcedimentos"`
	ValorTaxasAlugueis string `xml:"ans:valorTaxasAlugueis"`
	ValorMateriais     string `xml:"ans:valorMateriais"`
	ValorMedicamentos  string `xml:"ans:valorMedicamentos"`
	ValorOPME          string `xml:"ans:valorOPME"`
	ValorTotalGeral    string `xml:"ans:valorTotalGeral"`
}
