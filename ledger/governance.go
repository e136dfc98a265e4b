// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
)

const MaxChoiceLength = 64

// CastVote records the vote of a claimant. Each claimant votes once, with a
// weight equal to the amount they claimed. Voting stays open after the
// migration is finalized.
func (l *Ledger) CastVote(
	ctx context.Context,
	migration identity.Identity,
	voter identity.Identity,
	choice string,
) (*models.GovernanceVote, error) {
	const op = "cast_vote"
	choice = strings.TrimSpace(choice)
	if choice == "" || len(choice) > MaxChoiceLength {
		return nil, newOperationError(
			op,
			migration,
			fmt.Errorf(
				"%w: must be 1 to %d bytes",
				ErrInvalidChoice,
				MaxChoiceLength,
			),
		)
	}
	var vote *models.GovernanceVote
	var totalVotes uint64
	keys := []string{
		governanceKey(migration.String()),
		claimKey(migration.String(), voter.String()),
	}
	err := l.execute(
		ctx,
		op,
		migration,
		keys,
		func(_ context.Context, txn *database.Txn) error {
			m, err := l.loadMigration(migration, txn)
			if err != nil {
				return err
			}
			claim, err := l.db.GetClaim(m.ID, voter, txn)
			if err != nil {
				if errors.Is(err, types.ErrRecordNotFound) {
					return ErrNotEligibleToVote
				}
				return fmt.Errorf("load claim: %w", err)
			}
			if !claim.IsClaimed {
				return ErrNotEligibleToVote
			}
			_, err = l.db.GetGovernanceVote(m.ID, voter, txn)
			if err == nil {
				return ErrAlreadyVoted
			}
			if !errors.Is(err, types.ErrRecordNotFound) {
				return fmt.Errorf("load vote: %w", err)
			}
			gov, err := l.db.GetGovernance(m.ID, txn)
			if err != nil {
				if !errors.Is(err, types.ErrRecordNotFound) {
					return fmt.Errorf("load governance: %w", err)
				}
				gov = &models.Governance{MigrationID: m.ID}
			}
			total, carry := bits.Add64(
				uint64(gov.TotalVotes),
				uint64(claim.ClaimedAmount),
				0,
			)
			if carry != 0 {
				return ErrOverflow
			}
			gov.TotalVotes = types.Uint64(total)
			if err := l.db.SaveGovernance(gov, txn); err != nil {
				return fmt.Errorf("save governance: %w", err)
			}
			vote = &models.GovernanceVote{
				MigrationID: m.ID,
				Voter:       voter,
				Choice:      choice,
				Weight:      claim.ClaimedAmount,
				CastAt:      l.now(),
			}
			if err := l.db.CreateGovernanceVote(vote, txn); err != nil {
				if errors.Is(err, types.ErrDuplicateRecord) {
					return ErrAlreadyVoted
				}
				return fmt.Errorf("create vote: %w", err)
			}
			totalVotes = total
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	l.metrics.votesCastTotal.Inc()
	l.publish(VoteCastEventType, VoteCastEvent{
		Choice:     choice,
		Migration:  migration,
		Voter:      voter,
		Weight:     uint64(vote.Weight),
		TotalVotes: totalVotes,
	})
	return vote, nil
}

// ChoiceTally is the summed weight of one choice
type ChoiceTally struct {
	Choice string `json:"choice"`
	Weight uint64 `json:"weight"`
	Votes  int    `json:"votes"`
}

type Tally struct {
	Choices    []ChoiceTally `json:"choices"`
	TotalVotes uint64        `json:"total_votes"`
}

// GetTally sums the votes of a migration by choice, heaviest first
func (l *Ledger) GetTally(
	ctx context.Context,
	migration identity.Identity,
) (*Tally, error) {
	ret := &Tally{}
	err := l.view(ctx, "get_tally", migration, func(txn *database.Txn) error {
		m, err := l.loadMigration(migration, txn)
		if err != nil {
			return err
		}
		gov, err := l.db.GetGovernance(m.ID, txn)
		if err != nil && !errors.Is(err, types.ErrRecordNotFound) {
			return fmt.Errorf("load governance: %w", err)
		}
		if gov != nil {
			ret.TotalVotes = uint64(gov.TotalVotes)
		}
		votes, err := l.db.ListGovernanceVotes(m.ID, txn)
		if err != nil {
			return fmt.Errorf("list votes: %w", err)
		}
		byChoice := make(map[string]*ChoiceTally)
		for _, vote := range votes {
			tally, ok := byChoice[vote.Choice]
			if !ok {
				tally = &ChoiceTally{Choice: vote.Choice}
				byChoice[vote.Choice] = tally
			}
			// Cannot overflow since the total of all weights fit
			tally.Weight += uint64(vote.Weight)
			tally.Votes++
		}
		for _, tally := range byChoice {
			ret.Choices = append(ret.Choices, *tally)
		}
		slices.SortFunc(ret.Choices, func(a, b ChoiceTally) int {
			if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
				return c
			}
			return strings.Compare(a.Choice, b.Choice)
		})
		return nil
	})
	return ret, err
}
