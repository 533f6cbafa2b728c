package lexicon

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jProvider loads a corpus from a lexical graph:
// (:Lemma {text, pos}) nodes connected by [:SYNONYM_OF] and [:ANTONYM_OF]
// relationships. The graph is read once into an immutable Corpus snapshot.
type Neo4jProvider struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jProvider connects to the lexical graph database.
func NewNeo4jProvider(uri, user, password string, logger *zap.Logger) (*Neo4jProvider, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Neo4jProvider{driver: driver, logger: logger}, nil
}

func (p *Neo4jProvider) Name() string { return "neo4j" }

// Close shuts down the underlying driver.
func (p *Neo4jProvider) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}

// Load reads all synonym and antonym edges into a Corpus.
func (p *Neo4jProvider) Load(ctx context.Context) (*Corpus, error) {
	if err := p.driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}

	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	groups, err := p.loadSynonymGroups(ctx, session)
	if err != nil {
		return nil, err
	}
	pairs, err := p.loadAntonymPairs(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 && len(pairs) == 0 {
		return nil, fmt.Errorf("lexical graph is empty")
	}

	p.logger.Debug("lexical graph loaded",
		zap.Int("synonym_edges", len(groups)),
		zap.Int("antonym_pairs", len(pairs)))

	return NewCorpus(groups, pairs), nil
}

// loadSynonymGroups reads each SYNONYM_OF edge as a mutual two-lemma group.
func (p *Neo4jProvider) loadSynonymGroups(ctx context.Context, session neo4j.SessionWithContext) ([]SynonymGroup, error) {
	result, err := session.Run(ctx,
		`MATCH (a:Lemma)-[:SYNONYM_OF]-(b:Lemma)
		 WHERE a.text < b.text AND a.pos = b.pos
		 RETURN DISTINCT a.text AS a, b.text AS b, a.pos AS pos`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("query synonyms: %w", err)
	}

	var groups []SynonymGroup
	for result.Next(ctx) {
		rec := result.Record()
		a, b, pos, ok := edgeFields(rec)
		if !ok {
			continue
		}
		groups = append(groups, SynonymGroup{POS: pos, Lemmas: []string{a, b}})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	return groups, nil
}

func (p *Neo4jProvider) loadAntonymPairs(ctx context.Context, session neo4j.SessionWithContext) ([]AntonymPair, error) {
	result, err := session.Run(ctx,
		`MATCH (a:Lemma)-[:ANTONYM_OF]-(b:Lemma)
		 WHERE a.text < b.text AND a.pos = b.pos
		 RETURN DISTINCT a.text AS a, b.text AS b, a.pos AS pos`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("query antonyms: %w", err)
	}

	var pairs []AntonymPair
	for result.Next(ctx) {
		rec := result.Record()
		a, b, pos, ok := edgeFields(rec)
		if !ok {
			continue
		}
		pairs = append(pairs, AntonymPair{POS: pos, A: a, B: b})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read antonyms: %w", err)
	}
	return pairs, nil
}

func edgeFields(rec *neo4j.Record) (a, b string, pos PartOfSpeech, ok bool) {
	av, aok := rec.Get("a")
	bv, bok := rec.Get("b")
	pv, pok := rec.Get("pos")
	if !aok || !bok || !pok || av == nil || bv == nil || pv == nil {
		return "", "", Other, false
	}
	as, aok := av.(string)
	bs, bok := bv.(string)
	ps, pok := pv.(string)
	if !aok || !bok || !pok {
		return "", "", Other, false
	}
	switch PartOfSpeech(ps) {
	case Verb, Noun, Adjective:
		return as, bs, PartOfSpeech(ps), true
	default:
		return as, bs, Other, true
	}
}

// Seed writes synonym groups and antonym pairs into the lexical graph.
// Used by setup tooling and integration tests.
func (p *Neo4jProvider) Seed(ctx context.Context, groups []SynonymGroup, pairs []AntonymPair) error {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for _, g := range groups {
		for i := 0; i < len(g.Lemmas); i++ {
			for j := i + 1; j < len(g.Lemmas); j++ {
				_, err := session.Run(ctx,
					`MERGE (a:Lemma {text: $a, pos: $pos})
					 MERGE (b:Lemma {text: $b, pos: $pos})
					 MERGE (a)-[:SYNONYM_OF]->(b)`,
					map[string]interface{}{"a": g.Lemmas[i], "b": g.Lemmas[j], "pos": string(g.POS)})
				if err != nil {
					return fmt.Errorf("seed synonym %s/%s: %w", g.Lemmas[i], g.Lemmas[j], err)
				}
			}
		}
	}
	for _, pr := range pairs {
		_, err := session.Run(ctx,
			`MERGE (a:Lemma {text: $a, pos: $pos})
			 MERGE (b:Lemma {text: $b, pos: $pos})
			 MERGE (a)-[:ANTONYM_OF]->(b)`,
			map[string]interface{}{"a": pr.A, "b": pr.B, "pos": string(pr.POS)})
		if err != nil {
			return fmt.Errorf("seed antonym %s/%s: %w", pr.A, pr.B, err)
		}
	}
	return nil
}
