package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/jaswdr/faker"

	"forum/pkg/common"
	"forum/pkg/post"
	"forum/pkg/sessions"
	"forum/pkg/user"
	"forum/pkg/voting"
)

var f = faker.New()

// One password for every demo account.
const seedPassword = "sdfsdfsdf"

// seed generates demo users, posts, comments and votes so the UI has
// something to show. Every author gets a live session first because the
// stores reject anonymous writes.
func seed(users *user.Store, posts *post.Store, sm *sessions.Manager) error {
	if len(users.All()) > 0 {
		return nil
	}

	authors := make([]*user.User, 0, 6)
	for i := 0; i < 6; i++ {
		username := fmt.Sprintf("%s%d", genUsername(), i)
		u, err := users.Register(user.Credentials{
			Username: username,
			Email:    username + "@example.com",
			Password: seedPassword,
		})
		if err != nil {
			return fmt.Errorf("seed: can't register user %q: %w", username, err)
		}
		if _, err := sm.CreateToken(u); err != nil {
			return fmt.Errorf("seed: can't open session for %q: %w", username, err)
		}
		authors = append(authors, u)
	}

	for i := 0; i < 12; i++ {
		author := randUser(authors)
		p, err := posts.Add(post.Draft{
			Title:    genTitle(),
			Content:  genText(),
			Category: randCategory(),
			Tags:     f.Lorem().Words(rand.Intn(3) + 1),
			AuthorID: author.ID,
		})
		if err != nil {
			return fmt.Errorf("seed: can't add post: %w", err)
		}

		for c := 0; c < rand.Intn(4); c++ {
			if _, err := posts.AddComment(p.ID, post.CommentDraft{
				AuthorID: randUser(authors).ID,
				Content:  genText(),
			}); err != nil {
				return fmt.Errorf("seed: can't add comment: %w", err)
			}
		}
		for _, voter := range authors[:rand.Intn(len(authors))] {
			score := voting.ScoreUp
			if rand.Intn(4) == 0 {
				score = voting.ScoreDown
			}
			if _, err := posts.Vote(p.ID, voter.ID, score); err != nil {
				return fmt.Errorf("seed: can't vote: %w", err)
			}
		}
	}
	return nil
}

// genUsername keeps only characters the registration validator accepts.
func genUsername() string {
	name := strings.ToLower(f.Person().FirstName())
	clean := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, name)
	if len(clean) < 3 {
		clean += common.RandStringRunes(3)
	}
	return clean
}

func randCategory() string {
	return post.Categories[rand.Intn(len(post.Categories))]
}

func genTitle() string {
	return strings.Join(f.Lorem().Words(rand.Intn(5)+3), " ")
}

func genText() string {
	return f.Lorem().Paragraph(rand.Intn(3) + 2)
}

func randUser(users []*user.User) *user.User {
	return users[rand.Intn(len(users))]
}
