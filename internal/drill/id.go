// Package drill addresses every question of a session with a single string
// id and resolves ids back to renderable questions.
//
// Five namespaces are recognised:
//
//	g{gid}_q{n}              fixed drill of grammar gid
//	rev_g{gid}_{drillID}     fixed drill of gid borrowed for review
//	transfer_g{gid}_{type}   synthesized transfer drill
//	ai_{...}                 generated drill held in the generation cache
//	rev_v{vid}_sense         vocabulary meaning quiz
package drill

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedID is returned by Parse for ids outside every namespace.
var ErrMalformedID = errors.New("malformed drill id")

// Kind tags the namespace of an ID.
type Kind int

const (
	KindFixed Kind = iota
	KindReview
	KindTransfer
	KindGenerated
	KindVocabSense
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindReview:
		return "review"
	case KindTransfer:
		return "transfer"
	case KindGenerated:
		return "generated"
	case KindVocabSense:
		return "vocab-sense"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Transfer drill templates.
const (
	TransferMeaning = "meaning"
	TransferCounter = "counter"
)

// ID is a parsed question id.
type ID struct {
	Kind      Kind
	GrammarID int    // zero for vocab ids and generated ids without a grammar tag
	VocabID   int    // KindVocabSense only
	DrillID   string // fixed or generated: the full drill id; review: the borrowed drill id
	Transfer  string // KindTransfer only
}

// Fixed addresses a fixed drill by its literal id.
func Fixed(grammarID int, drillID string) ID {
	return ID{Kind: KindFixed, GrammarID: grammarID, DrillID: drillID}
}

// Review wraps a fixed drill of grammarID for review.
func Review(grammarID int, drillID string) ID {
	return ID{Kind: KindReview, GrammarID: grammarID, DrillID: drillID}
}

// Transfer addresses a synthesized transfer drill.
func Transfer(grammarID int, template string) ID {
	return ID{Kind: KindTransfer, GrammarID: grammarID, Transfer: template}
}

// Generated addresses a generated drill.
func Generated(drillID string) ID {
	id := ID{Kind: KindGenerated, DrillID: drillID}
	if m := generatedRe.FindStringSubmatch(drillID); m != nil {
		id.GrammarID, _ = strconv.Atoi(m[1])
	}
	return id
}

// VocabSense addresses a vocabulary meaning quiz.
func VocabSense(vocabID int) ID {
	return ID{Kind: KindVocabSense, VocabID: vocabID}
}

func (id ID) String() string {
	switch id.Kind {
	case KindReview:
		return fmt.Sprintf("rev_g%d_%s", id.GrammarID, id.DrillID)
	case KindTransfer:
		return fmt.Sprintf("transfer_g%d_%s", id.GrammarID, id.Transfer)
	case KindVocabSense:
		return fmt.Sprintf("rev_v%d_sense", id.VocabID)
	default:
		return id.DrillID
	}
}

var (
	fixedRe      = regexp.MustCompile(`^g(\d+)_q\d+$`)
	reviewRe     = regexp.MustCompile(`^rev_g(\d+)_(.+)$`)
	transferRe   = regexp.MustCompile(`^transfer_g(\d+)_(.+)$`)
	vocabSenseRe = regexp.MustCompile(`^rev_v(\d+)_sense$`)
	generatedRe  = regexp.MustCompile(`^ai_g(\d+)_`)
)

// Parse decodes s into an ID.
func Parse(s string) (ID, error) {
	atoi := func(v string) (int, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedID, s)
		}
		return n, nil
	}

	switch {
	case vocabSenseRe.MatchString(s):
		vid, err := atoi(vocabSenseRe.FindStringSubmatch(s)[1])
		return VocabSense(vid), err
	case reviewRe.MatchString(s):
		m := reviewRe.FindStringSubmatch(s)
		gid, err := atoi(m[1])
		return Review(gid, m[2]), err
	case transferRe.MatchString(s):
		m := transferRe.FindStringSubmatch(s)
		gid, err := atoi(m[1])
		return Transfer(gid, m[2]), err
	case strings.HasPrefix(s, "ai_") && len(s) > len("ai_"):
		return Generated(s), nil
	case fixedRe.MatchString(s):
		gid, err := atoi(fixedRe.FindStringSubmatch(s)[1])
		return Fixed(gid, s), err
	}
	return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
}
