package glosa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vidaplus/tiss/internal/domain/guia"
)

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockRepo struct {
	glosas   map[uuid.UUID]*Glosa
	recursos map[uuid.UUID]*Recurso
}

func newMockRepo() *mockRepo {
	return &mockRepo{glosas: map[uuid.UUID]*Glosa{}, recursos: map[uuid.UUID]*Recurso{}}
}

func (m *mockRepo) CreateGlosa(_ context.Context, g *Glosa) error {
	g.VersionID = 1
	cp := *g
	m.glosas[g.ID] = &cp
	return nil
}

func (m *mockRepo) GetGlosa(_ context.Context, id uuid.UUID) (*Glosa, error) {
	g, ok := m.glosas[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *mockRepo) ListByGuia(_ context.Context, guiaID uuid.UUID) ([]*Glosa, error) {
	var out []*Glosa
	for _, g := range m.glosas {
		if g.GuiaID == guiaID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateGlosa(_ context.Context, g *Glosa) error {
	stored, ok := m.glosas[g.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.VersionID != g.VersionID {
		return ErrConcurrentModification
	}
	g.VersionID++
	cp := *g
	m.glosas[g.ID] = &cp
	return nil
}

func (m *mockRepo) CreateRecurso(_ context.Context, r *Recurso) error {
	r.VersionID = 1
	cp := *r
	m.recursos[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetRecurso(_ context.Context, id uuid.UUID) (*Recurso, error) {
	r, ok := m.recursos[id]
	if !ok {
		return nil, ErrRecursoNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) ListRecursos(_ context.Context, glosaID uuid.UUID) ([]*Recurso, error) {
	var out []*Recurso
	for _, r := range m.recursos {
		if r.GlosaID == glosaID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateRecurso(_ context.Context, r *Recurso) error {
	stored, ok := m.recursos[r.ID]
	if !ok {
		return ErrRecursoNotFound
	}
	if stored.VersionID != r.VersionID {
		return ErrConcurrentModification
	}
	r.VersionID++
	cp := *r
	m.recursos[r.ID] = &cp
	return nil
}

type mockGuiaRepo struct {
	guias map[uuid.UUID]*guia.GuiaRecord
}

func newMockGuiaRepo() *mockGuiaRepo {
	return &mockGuiaRepo{guias: map[uuid.UUID]*guia.GuiaRecord{}}
}

func (m *mockGuiaRepo) add(rec *guia.GuiaRecord) {
	cp := *rec
	m.guias[rec.ID] = &cp
}

func (m *mockGuiaRepo) Create(_ context.Context, rec *guia.GuiaRecord) error {
	m.add(rec)
	return nil
}

func (m *mockGuiaRepo) GetByID(_ context.Context, id uuid.UUID) (*guia.GuiaRecord, error) {
	rec, ok := m.guias[id]
	if !ok {
		return nil, guia.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockGuiaRepo) List(_ context.Context, _ guia.Filter, _, _ int) ([]*guia.GuiaRecord, int, error) {
	return nil, 0, nil
}

func (m *mockGuiaRepo) ListByIDs(_ context.Context, _ []uuid.UUID) ([]*guia.GuiaRecord, error) {
	return nil, nil
}

func (m *mockGuiaRepo) ListByLote(_ context.Context, _ uuid.UUID) ([]*guia.GuiaRecord, error) {
	return nil, nil
}

func (m *mockGuiaRepo) Update(_ context.Context, rec *guia.GuiaRecord) error {
	if _, ok := m.guias[rec.ID]; !ok {
		return guia.ErrNotFound
	}
	rec.VersionID++
	cp := *rec
	m.guias[rec.ID] = &cp
	return nil
}

func (m *mockGuiaRepo) NextNumeroGuia(_ context.Context) (string, error) {
	return "00000001", nil
}

func (m *mockGuiaRepo) VincularLote(_ context.Context, _ []uuid.UUID, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *mockGuiaRepo) DesvincularLote(_ context.Context, _ []uuid.UUID) error {
	return nil
}

func guiaEnviada(valor float64) *guia.GuiaRecord {
	return &guia.GuiaRecord{
		ID:                  uuid.New(),
		Tipo:                guia.TipoSADT,
		NumeroGuiaPrestador: "00000042",
		RegistroANS:         "123456",
		PatientID:           uuid.New(),
		Status:              guia.StatusEnviada,
		ValorTotal:          valor,
		VersionID:           1,
	}
}

func testService() (*Service, *mockRepo, *mockGuiaRepo) {
	repo := newMockRepo()
	guias := newMockGuiaRepo()
	return NewService(repo, guias, passthroughTx{}), repo, guias
}

func TestImportarGlosaParcial(t *testing.T) {
	svc, _, guias := testService()
	claim := guiaEnviada(200.00)
	guias.add(claim)

	g, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID:      claim.ID,
		CodigoGlosa: "1705",
		Descricao:   "Cobranca em duplicidade",
		Itens: []ItemGlosado{
			{CodigoProcedimento: "40302040", CodigoGlosa: "1705", ValorGlosado: 100.00},
		},
		DataGlosa: "2026-08-01",
	})
	if err != nil {
		t.Fatalf("ImportarGlosa: %v", err)
	}
	if g.ValorGlosado != 100.00 || g.ValorAprovado != 100.00 {
		t.Errorf("glosado/aprovado = %.2f/%.2f, want 100.00/100.00", g.ValorGlosado, g.ValorAprovado)
	}
	if g.ValorGlosado+g.ValorAprovado != g.ValorOriginal {
		t.Error("denied plus approved must equal the original value")
	}

	atualizada, _ := guias.GetByID(context.Background(), claim.ID)
	if atualizada.Status != guia.StatusGlosadaParcial {
		t.Errorf("claim status = %s, want glosada_parcial", atualizada.Status)
	}
	if atualizada.ValorGlosado != 100.00 || atualizada.ValorPago != 100.00 {
		t.Errorf("claim glosado/pago = %.2f/%.2f, want 100.00/100.00",
			atualizada.ValorGlosado, atualizada.ValorPago)
	}
}

func TestImportarGlosaAcumulaSobreParcial(t *testing.T) {
	svc, _, guias := testService()
	claim := guiaEnviada(200.00)
	guias.add(claim)

	_, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens: []ItemGlosado{
			{CodigoProcedimento: "40302040", CodigoGlosa: "1705", ValorGlosado: 80.00},
		},
	})
	if err != nil {
		t.Fatalf("first ImportarGlosa: %v", err)
	}

	segunda, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens: []ItemGlosado{
			{CodigoProcedimento: "10101012", CodigoGlosa: "1802", ValorGlosado: 50.00},
		},
	})
	if err != nil {
		t.Fatalf("second ImportarGlosa: %v", err)
	}
	if segunda.ValorOriginal != 120.00 {
		t.Errorf("second glosa original = %.2f, want 120.00 (what the first left standing)",
			segunda.ValorOriginal)
	}

	atualizada, _ := guias.GetByID(context.Background(), claim.ID)
	if atualizada.ValorGlosado != 130.00 || atualizada.ValorPago != 70.00 {
		t.Errorf("claim glosado/pago = %.2f/%.2f, want 130.00/70.00",
			atualizada.ValorGlosado, atualizada.ValorPago)
	}
	if atualizada.Status != guia.StatusGlosadaParcial {
		t.Errorf("claim status = %s, want glosada_parcial", atualizada.Status)
	}

	// A third denial wiping out the remainder totals the claim.
	_, err = svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens: []ItemGlosado{
			{CodigoProcedimento: "10101012", CodigoGlosa: "1802", ValorGlosado: 70.00},
		},
	})
	if err != nil {
		t.Fatalf("third ImportarGlosa: %v", err)
	}
	atualizada, _ = guias.GetByID(context.Background(), claim.ID)
	if atualizada.Status != guia.StatusGlosadaTotal {
		t.Errorf("claim status = %s, want glosada_total", atualizada.Status)
	}

	// Nothing left to deny.
	_, err = svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens: []ItemGlosado{
			{CodigoProcedimento: "10101012", CodigoGlosa: "1802", ValorGlosado: 1.00},
		},
	})
	if !errors.Is(err, ErrValorGlosadoExcede) {
		t.Errorf("err = %v, want ErrValorGlosadoExcede", err)
	}
}

func TestImportarGlosaTotal(t *testing.T) {
	svc, _, guias := testService()
	claim := guiaEnviada(100.00)
	guias.add(claim)

	g, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens: []ItemGlosado{
			{CodigoProcedimento: "40302040", CodigoGlosa: "1802", ValorGlosado: 100.00},
		},
	})
	if err != nil {
		t.Fatalf("ImportarGlosa: %v", err)
	}
	if g.ValorAprovado != 0 {
		t.Errorf("aprovado = %.2f, want 0", g.ValorAprovado)
	}
	atualizada, _ := guias.GetByID(context.Background(), claim.ID)
	if atualizada.Status != guia.StatusGlosadaTotal {
		t.Errorf("claim status = %s, want glosada_total", atualizada.Status)
	}
}

func TestImportarGlosaGuiaNaoEnviada(t *testing.T) {
	svc, _, guias := testService()
	claim := guiaEnviada(100.00)
	claim.Status = guia.StatusRascunho
	guias.add(claim)

	_, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens:  []ItemGlosado{{ValorGlosado: 10.00}},
	})
	if !errors.Is(err, guia.ErrClaimNotSubmitted) {
		t.Errorf("err = %v, want ErrClaimNotSubmitted", err)
	}
}

func TestImportarGlosaExcedeValor(t *testing.T) {
	svc, _, guias := testService()
	claim := guiaEnviada(100.00)
	guias.add(claim)

	_, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID: claim.ID,
		Itens:  []ItemGlosado{{ValorGlosado: 150.00}},
	})
	if !errors.Is(err, ErrValorGlosadoExcede) {
		t.Errorf("err = %v, want ErrValorGlosadoExcede", err)
	}
}

func TestImportarGlosaSemItens(t *testing.T) {
	svc, _, guias := testService()
	claim := guiaEnviada(100.00)
	guias.add(claim)

	_, err := svc.ImportarGlosa(context.Background(), GlosaInput{GuiaID: claim.ID})
	if !errors.Is(err, ErrSemItens) {
		t.Errorf("err = %v, want ErrSemItens", err)
	}
}

func importarValida(t *testing.T, svc *Service, guias *mockGuiaRepo, valorGuia, valorGlosa float64) (*Glosa, *guia.GuiaRecord) {
	t.Helper()
	claim := guiaEnviada(valorGuia)
	guias.add(claim)
	g, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID:      claim.ID,
		CodigoGlosa: "1705",
		Itens:       []ItemGlosado{{CodigoProcedimento: "40302040", ValorGlosado: valorGlosa}},
	})
	if err != nil {
		t.Fatalf("ImportarGlosa: %v", err)
	}
	return g, claim
}

func TestCriarRecurso(t *testing.T) {
	svc, repo, guias := testService()
	g, claim := importarValida(t, svc, guias, 200.00, 100.00)

	rec, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "Documentacao anexada comprova a execucao",
		ValorContestado: 100.00,
	})
	if err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}
	if rec.Status != RecursoEnviado {
		t.Errorf("recurso status = %s, want enviado", rec.Status)
	}
	atualizada, _ := repo.GetGlosa(context.Background(), g.ID)
	if atualizada.Status != StatusEmRecurso {
		t.Errorf("glosa status = %s, want em_recurso", atualizada.Status)
	}
	claimAtual, _ := guias.GetByID(context.Background(), claim.ID)
	if claimAtual.Status != guia.StatusRecurso {
		t.Errorf("claim status = %s, want recurso", claimAtual.Status)
	}
}

func TestCriarRecursoPrazoExpirado(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarValida(t, svc, guias, 200.00, 100.00)

	svc.agora = func() time.Time { return g.PrazoRecurso.Add(24 * time.Hour) }
	_, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "fora do prazo",
		ValorContestado: 50.00,
	})
	if !errors.Is(err, ErrAppealWindowExpired) {
		t.Errorf("err = %v, want ErrAppealWindowExpired", err)
	}
}

func TestCriarRecursoValorContestadoInvalido(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarValida(t, svc, guias, 200.00, 100.00)

	for _, valor := range []float64{0, -10, 150.00} {
		_, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
			Justificativa:   "teste",
			ValorContestado: valor,
		})
		if !errors.Is(err, ErrValorContestadoInvalido) {
			t.Errorf("valor %.2f: err = %v, want ErrValorContestadoInvalido", valor, err)
		}
	}
}

func TestCriarRecursoGlosaJaEmRecurso(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarValida(t, svc, guias, 200.00, 100.00)

	if _, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "primeiro",
		ValorContestado: 100.00,
	}); err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}
	_, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "segundo",
		ValorContestado: 100.00,
	})
	if !errors.Is(err, ErrGlosaNaoPendente) {
		t.Errorf("err = %v, want ErrGlosaNaoPendente", err)
	}
}

func TestResolverRecursoAceito(t *testing.T) {
	svc, _, guias := testService()
	g, claim := importarValida(t, svc, guias, 200.00, 100.00)
	rec, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "comprovado",
		ValorContestado: 100.00,
	})
	if err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}

	resolvido, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status: RecursoAceito,
	})
	if err != nil {
		t.Fatalf("ResolverRecurso: %v", err)
	}
	if resolvido.ValorRecuperado != 100.00 {
		t.Errorf("recuperado = %.2f, want full contested 100.00", resolvido.ValorRecuperado)
	}
	claimAtual, _ := guias.GetByID(context.Background(), claim.ID)
	if claimAtual.ValorPago != 200.00 || claimAtual.ValorGlosado != 0 {
		t.Errorf("claim pago/glosado = %.2f/%.2f, want 200.00/0.00",
			claimAtual.ValorPago, claimAtual.ValorGlosado)
	}
	if claimAtual.Status != guia.StatusPaga {
		t.Errorf("claim status = %s, want paga", claimAtual.Status)
	}
}

func TestResolverRecursoNegado(t *testing.T) {
	svc, _, guias := testService()
	g, claim := importarValida(t, svc, guias, 200.00, 100.00)
	rec, _ := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "teste",
		ValorContestado: 100.00,
	})

	resolvido, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status:          RecursoNegado,
		ValorRecuperado: 999.00,
	})
	if err != nil {
		t.Fatalf("ResolverRecurso: %v", err)
	}
	if resolvido.ValorRecuperado != 0 {
		t.Errorf("recuperado = %.2f, want 0 on denial", resolvido.ValorRecuperado)
	}
	claimAtual, _ := guias.GetByID(context.Background(), claim.ID)
	if claimAtual.ValorPago != 100.00 {
		t.Errorf("claim pago = %.2f, want unchanged 100.00", claimAtual.ValorPago)
	}
}

func TestResolverRecursoParcialLimites(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarValida(t, svc, guias, 200.00, 100.00)
	rec, _ := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "teste",
		ValorContestado: 100.00,
	})

	for _, valor := range []float64{0, 100.00, 120.00} {
		_, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
			Status:          RecursoAceitoParcial,
			ValorRecuperado: valor,
		})
		if !errors.Is(err, ErrValorRecuperadoInvalido) {
			t.Errorf("valor %.2f: err = %v, want ErrValorRecuperadoInvalido", valor, err)
		}
	}
}

func TestResolverRecursoJaResolvido(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarValida(t, svc, guias, 200.00, 100.00)
	rec, _ := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "teste",
		ValorContestado: 100.00,
	})
	if _, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status: RecursoAceito,
	}); err != nil {
		t.Fatalf("ResolverRecurso: %v", err)
	}
	_, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status: RecursoNegado,
	})
	if !errors.Is(err, ErrRecursoJaDecidido) {
		t.Errorf("err = %v, want ErrRecursoJaDecidido", err)
	}
}

// Full denial and appeal cycle over a R$200 claim: R$100 denied, appeal
// filed for the full denied value, operator concedes R$50.
func TestCicloCompletoGlosaRecurso(t *testing.T) {
	svc, repo, guias := testService()
	claim := guiaEnviada(200.00)
	guias.add(claim)

	g, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID:      claim.ID,
		CodigoGlosa: "1705",
		Itens: []ItemGlosado{
			{CodigoProcedimento: "40302040", CodigoGlosa: "1705", ValorGlosado: 60.00},
			{CodigoProcedimento: "40301630", CodigoGlosa: "1802", ValorGlosado: 40.00},
		},
	})
	if err != nil {
		t.Fatalf("ImportarGlosa: %v", err)
	}
	etapa1, _ := guias.GetByID(context.Background(), claim.ID)
	if etapa1.Status != guia.StatusGlosadaParcial || etapa1.ValorGlosado != 100.00 || etapa1.ValorPago != 100.00 {
		t.Fatalf("after import: status=%s glosado=%.2f pago=%.2f", etapa1.Status, etapa1.ValorGlosado, etapa1.ValorPago)
	}

	rec, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "Procedimentos executados conforme autorizacao previa",
		ValorContestado: 100.00,
	})
	if err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}

	resolvido, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status:          RecursoAceitoParcial,
		ValorRecuperado: 50.00,
	})
	if err != nil {
		t.Fatalf("ResolverRecurso: %v", err)
	}
	if resolvido.ValorRecuperado != 50.00 {
		t.Errorf("recuperado = %.2f, want 50.00", resolvido.ValorRecuperado)
	}

	final, _ := guias.GetByID(context.Background(), claim.ID)
	if final.Status != guia.StatusPaga {
		t.Errorf("final claim status = %s, want paga", final.Status)
	}
	if final.ValorPago != 150.00 || final.ValorGlosado != 50.00 {
		t.Errorf("final pago/glosado = %.2f/%.2f, want 150.00/50.00", final.ValorPago, final.ValorGlosado)
	}
	if final.ValorPago+final.ValorGlosado != final.ValorTotal {
		t.Error("paid plus denied must reconcile with the claim value")
	}

	glosaFinal, _ := repo.GetGlosa(context.Background(), g.ID)
	if glosaFinal.Status != StatusResolvida {
		t.Errorf("final glosa status = %s, want resolvida", glosaFinal.Status)
	}
	if glosaFinal.ValorGlosado != 50.00 || glosaFinal.ValorAprovado != 150.00 {
		t.Errorf("final glosa glosado/aprovado = %.2f/%.2f, want 50.00/150.00",
			glosaFinal.ValorGlosado, glosaFinal.ValorAprovado)
	}
}

func importarDoisItens(t *testing.T, svc *Service, guias *mockGuiaRepo) (*Glosa, *guia.GuiaRecord) {
	t.Helper()
	claim := guiaEnviada(300.00)
	guias.add(claim)
	g, err := svc.ImportarGlosa(context.Background(), GlosaInput{
		GuiaID:      claim.ID,
		CodigoGlosa: "1705",
		Itens: []ItemGlosado{
			{CodigoProcedimento: "40302040", CodigoGlosa: "1705", ValorGlosado: 60.00},
			{CodigoProcedimento: "40301630", CodigoGlosa: "1802", ValorGlosado: 40.00},
		},
	})
	if err != nil {
		t.Fatalf("ImportarGlosa: %v", err)
	}
	return g, claim
}

func TestCriarRecursoPorItens(t *testing.T) {
	svc, repo, guias := testService()
	g, _ := importarDoisItens(t, svc, guias)

	rec, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa: "Autorizacao previa cobre ambos os procedimentos",
		Itens: []ItemContestado{
			{CodigoProcedimento: "40302040", Justificativa: "Guia autorizada em 2026-07-01", ValorContestado: 60.00},
			{CodigoProcedimento: "40301630", ValorContestado: 40.00},
		},
	})
	if err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}
	if rec.ValorContestado != 100.00 {
		t.Errorf("contestado = %.2f, want sum of contested lines 100.00", rec.ValorContestado)
	}
	if len(rec.Itens) != 2 {
		t.Fatalf("recurso itens = %d, want 2", len(rec.Itens))
	}

	atualizada, _ := repo.GetGlosa(context.Background(), g.ID)
	for _, item := range atualizada.Itens {
		if item.StatusRecurso != ItemPendente {
			t.Errorf("item %s status = %s, want pendente", item.CodigoProcedimento, item.StatusRecurso)
		}
	}
	if atualizada.Itens[0].JustificativaRecurso != "Guia autorizada em 2026-07-01" {
		t.Errorf("item justificativa = %q, want per-line text", atualizada.Itens[0].JustificativaRecurso)
	}
	if atualizada.Itens[1].JustificativaRecurso != "Autorizacao previa cobre ambos os procedimentos" {
		t.Errorf("item justificativa = %q, want appeal-level fallback", atualizada.Itens[1].JustificativaRecurso)
	}
}

func TestCriarRecursoItemInvalido(t *testing.T) {
	casos := []struct {
		nome  string
		itens []ItemContestado
	}{
		{"codigo desconhecido", []ItemContestado{
			{CodigoProcedimento: "99999999", ValorContestado: 10.00},
		}},
		{"valor acima do glosado", []ItemContestado{
			{CodigoProcedimento: "40302040", ValorContestado: 80.00},
		}},
		{"codigo duplicado", []ItemContestado{
			{CodigoProcedimento: "40302040", ValorContestado: 30.00},
			{CodigoProcedimento: "40302040", ValorContestado: 30.00},
		}},
	}
	for _, tc := range casos {
		t.Run(tc.nome, func(t *testing.T) {
			svc, _, guias := testService()
			g, _ := importarDoisItens(t, svc, guias)
			_, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
				Justificativa: "teste",
				Itens:         tc.itens,
			})
			if !errors.Is(err, ErrItemContestadoInvalido) {
				t.Errorf("err = %v, want ErrItemContestadoInvalido", err)
			}
		})
	}
}

func TestResolverRecursoParcialPorItens(t *testing.T) {
	svc, repo, guias := testService()
	g, claim := importarDoisItens(t, svc, guias)
	rec, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa: "teste",
		Itens: []ItemContestado{
			{CodigoProcedimento: "40302040", ValorContestado: 60.00},
			{CodigoProcedimento: "40301630", ValorContestado: 40.00},
		},
	})
	if err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}

	resolvido, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status:       RecursoAceitoParcial,
		ItensAceitos: []string{"40302040"},
	})
	if err != nil {
		t.Fatalf("ResolverRecurso: %v", err)
	}
	if resolvido.ValorRecuperado != 60.00 {
		t.Errorf("recuperado = %.2f, want contested value of the accepted line 60.00", resolvido.ValorRecuperado)
	}

	glosaFinal, _ := repo.GetGlosa(context.Background(), g.ID)
	porCodigo := map[string]StatusItemRecurso{}
	for _, item := range glosaFinal.Itens {
		porCodigo[item.CodigoProcedimento] = item.StatusRecurso
	}
	if porCodigo["40302040"] != ItemAceito {
		t.Errorf("item 40302040 status = %s, want aceito", porCodigo["40302040"])
	}
	if porCodigo["40301630"] != ItemNegado {
		t.Errorf("item 40301630 status = %s, want negado", porCodigo["40301630"])
	}

	final, _ := guias.GetByID(context.Background(), claim.ID)
	if final.ValorPago != 260.00 || final.ValorGlosado != 40.00 {
		t.Errorf("final pago/glosado = %.2f/%.2f, want 260.00/40.00", final.ValorPago, final.ValorGlosado)
	}
}

func TestResolverRecursoItensAceitosNaoContestados(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarDoisItens(t, svc, guias)
	rec, err := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa: "teste",
		Itens: []ItemContestado{
			{CodigoProcedimento: "40302040", ValorContestado: 60.00},
		},
	})
	if err != nil {
		t.Fatalf("CriarRecurso: %v", err)
	}

	_, err = svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status:       RecursoAceitoParcial,
		ItensAceitos: []string{"40301630"},
	})
	if !errors.Is(err, ErrItemContestadoInvalido) {
		t.Errorf("err = %v, want ErrItemContestadoInvalido", err)
	}
}

func TestIniciarAnalise(t *testing.T) {
	svc, _, guias := testService()
	g, _ := importarValida(t, svc, guias, 200.00, 100.00)
	rec, _ := svc.CriarRecurso(context.Background(), g.ID, RecursoInput{
		Justificativa:   "teste",
		ValorContestado: 100.00,
	})

	emAnalise, err := svc.IniciarAnalise(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("IniciarAnalise: %v", err)
	}
	if emAnalise.Status != RecursoEmAnalise {
		t.Errorf("status = %s, want em_analise", emAnalise.Status)
	}
	if _, err := svc.IniciarAnalise(context.Background(), rec.ID); !errors.Is(err, ErrRecursoJaDecidido) {
		t.Errorf("second IniciarAnalise err = %v, want ErrRecursoJaDecidido", err)
	}

	resolvido, err := svc.ResolverRecurso(context.Background(), rec.ID, ResolucaoInput{
		Status: RecursoAceito,
	})
	if err != nil {
		t.Fatalf("ResolverRecurso from em_analise: %v", err)
	}
	if resolvido.Status != RecursoAceito || resolvido.ValorRecuperado != 100.00 {
		t.Errorf("resolved = %s/%.2f, want aceito/100.00", resolvido.Status, resolvido.ValorRecuperado)
	}
}
