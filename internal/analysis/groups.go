package analysis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/store"
	"github.com/rknightion/paperless-dedupe/internal/unionfind"
)

// formedGroup is a connected component of scored pairs, ready for Stage 8
// reconciliation: its members and the averaged scores across every pair
// that contributed to the component. The primary member is chosen later,
// in reconcileGroups.
type formedGroup struct {
	MemberIDs []int64
	Group     model.DuplicateGroup
}

// memberKey joins a sorted member id list into the canonical string spec
// §9 uses to identify a group across runs: sort(member_doc_ids) joined
// by '|', derived at reconciliation time and never persisted as a column.
func memberKey(memberIDs []int64) string {
	sorted := append([]int64{}, memberIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "|")
}

// formGroups implements Stage 7: fold every scored pair into connected
// components via union-find, then average each score component across the
// pairs that contributed to its component (spec §4.7). It does not pick a
// primary member; reconcileGroups does that when it persists each group.
func formGroups(scored []model.CandidatePair, upstreamIDs map[int64]int64, cfg model.DedupConfig, now time.Time) []formedGroup {
	if len(scored) == 0 {
		return nil
	}

	uf := unionfind.New()
	for _, pair := range scored {
		uf.Union(strconv.FormatInt(pair.DocA, 10), strconv.FormatInt(pair.DocB, 10))
	}

	type accumulator struct {
		members map[int64]struct{}
		count   int
		sumOverall, sumJaccard, sumFuzzy, sumMetadata, sumFilename float64
	}
	byRoot := make(map[string]*accumulator)

	for _, pair := range scored {
		root := uf.Find(strconv.FormatInt(pair.DocA, 10))
		acc, ok := byRoot[root]
		if !ok {
			acc = &accumulator{members: make(map[int64]struct{})}
			byRoot[root] = acc
		}
		acc.members[pair.DocA] = struct{}{}
		acc.members[pair.DocB] = struct{}{}
		acc.count++
		acc.sumOverall += pair.Overall
		acc.sumJaccard += pair.Jaccard
		acc.sumFuzzy += pair.FuzzyTextRatio
		acc.sumMetadata += pair.MetadataSimilarity
		acc.sumFilename += pair.FilenameSimilarity
	}

	groups := make([]formedGroup, 0, len(byRoot))
	for _, acc := range byRoot {
		memberIDs := make([]int64, 0, len(acc.members))
		for id := range acc.members {
			memberIDs = append(memberIDs, id)
		}
		sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

		n := float64(acc.count)
		groups = append(groups, formedGroup{
			MemberIDs: memberIDs,
			Group: model.DuplicateGroup{
				ConfidenceScore:    acc.sumOverall / n,
				JaccardSimilarity:  acc.sumJaccard / n,
				FuzzyTextRatio:     acc.sumFuzzy / n,
				MetadataSimilarity: acc.sumMetadata / n,
				FilenameSimilarity: acc.sumFilename / n,
				AlgorithmVersion:   cfg.AlgorithmVersion,
				CreatedAt:          now,
				UpdatedAt:          now,
			},
		})
	}
	return groups
}

// primaryMember picks the member with the smallest upstream id, falling
// back to the smaller local id when upstream ids are unknown or tie.
func primaryMember(memberIDs []int64, upstreamIDs map[int64]int64) int64 {
	best := memberIDs[0]
	bestUpstream, bestKnown := upstreamIDs[best]
	for _, id := range memberIDs[1:] {
		upstream, known := upstreamIDs[id]
		switch {
		case known && bestKnown && upstream < bestUpstream:
			best, bestUpstream = id, upstream
		case known && !bestKnown:
			best, bestUpstream, bestKnown = id, upstream, true
		case (!known && !bestKnown) && id < best:
			best = id
		}
	}
	return best
}

// reconcileGroups implements Stage 8: diff the newly formed groups against
// the stored ones by canonical member-set key, inside one transaction.
// Matches are updated in place, preserving Reviewed/Resolved; unmatched
// formed groups are created; stored groups with no formed match are
// deleted unless a human has reviewed or resolved them (spec §4.7: "never
// silently discards a human decision").
func (o *Orchestrator) reconcileGroups(ctx context.Context, formed []formedGroup, upstreamIDs map[int64]int64, result *model.AnalysisResult) error {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reconciliation tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.ExistingGroups(ctx, tx)
	if err != nil {
		return err
	}
	existingByKey := make(map[string]store.GroupWithMembers, len(existing))
	for _, g := range existing {
		existingByKey[memberKey(g.MemberIDs)] = g
	}

	seenKeys := make(map[string]struct{}, len(formed))
	for _, fg := range formed {
		key := memberKey(fg.MemberIDs)
		seenKeys[key] = struct{}{}

		if match, ok := existingByKey[key]; ok {
			fg.Group.ID = match.Group.ID
			fg.Group.Reviewed = match.Group.Reviewed
			fg.Group.Resolved = match.Group.Resolved
			if err := store.UpdateGroupScores(ctx, tx, match.Group.ID, fg.Group); err != nil {
				return err
			}
			result.GroupsUpdated++
			continue
		}

		fg.Group.ID = newGroupID()
		primary := primaryMember(fg.MemberIDs, upstreamIDs)
		if err := store.CreateGroup(ctx, tx, fg.Group, fg.MemberIDs, primary); err != nil {
			return err
		}
		result.GroupsCreated++
	}

	for key, g := range existingByKey {
		if _, ok := seenKeys[key]; ok {
			continue
		}
		if g.Group.Reviewed || g.Group.Resolved {
			continue
		}
		if err := store.DeleteGroup(ctx, tx, g.Group.ID); err != nil {
			return err
		}
		result.GroupsRemoved++
	}

	return tx.Commit()
}
