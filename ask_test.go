package chatsheet

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/chatsheet/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGenerator(response string, prompts *[]string) Generator {
	return GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if prompts != nil {
			*prompts = append(*prompts, prompt)
		}
		return response, nil
	})
}

func TestSession_Ask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("translates executes and renders", func(t *testing.T) {
		t.Parallel()

		var prompts []string
		raw := "SQL:\n```sql\nSELECT name FROM items WHERE id = 2\n```\nTEMPLATE: The item with id 2 is {name}."
		s := loadedSession(t, nil, WithGenerator(fixedGenerator(raw, &prompts)))

		answer, err := s.Ask(ctx, "Show the name of item 2")
		require.NoError(t, err)
		assert.Equal(t, "SELECT name FROM items WHERE id = 2", answer.SQL)
		assert.Equal(t, "The item with id 2 is banana.", answer.Text)
		assert.Equal(t, model.OperationSelect, answer.Operation)
		assert.NotEmpty(t, answer.RequestID)

		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "Table: items")
		assert.Contains(t, prompts[0], "Show the name of item 2")
	})

	t.Run("delete renders against an empty dictionary", func(t *testing.T) {
		t.Parallel()

		raw := "SQL Query: DELETE FROM items WHERE id = 1;\nTemplate: The item with id {id} has been deleted."
		s := loadedSession(t, nil, WithGenerator(fixedGenerator(raw, nil)))

		answer, err := s.Ask(ctx, "remove item 1")
		require.NoError(t, err)
		assert.Equal(t, model.OperationDelete, answer.Operation)
		assert.Equal(t, "The item with id [unknown] has been deleted.", answer.Text)
		assert.Equal(t, []string{"id"}, answer.Substituted)
		assert.Equal(t, int64(2), countRows(t, s, "items"))
	})

	t.Run("no api key", func(t *testing.T) {
		t.Parallel()

		s := loadedSession(t, nil)
		assert.False(t, s.CanTranslate())

		_, err := s.Ask(ctx, "how many items?")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.ErrorIs(t, err, ErrNoAPIKey)
		assert.Equal(t, KindConfiguration, KindOf(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		gen := GeneratorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("API returned status 500: boom")
		})
		s := loadedSession(t, nil, WithGenerator(gen))

		_, err := s.Ask(ctx, "list items")
		require.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "API returned status 500: boom")
	})

	t.Run("unparseable response", func(t *testing.T) {
		t.Parallel()

		raw := "Sorry, I cannot help with that."
		s := loadedSession(t, nil, WithGenerator(fixedGenerator(raw, nil)))

		_, err := s.Ask(ctx, "list items")
		require.ErrorIs(t, err, ErrFormat)
		assert.ErrorIs(t, err, model.ErrInvalidResponseFormat)

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, raw, e.Raw)
	})

	t.Run("execution failure", func(t *testing.T) {
		t.Parallel()

		raw := "SQL: SELECT * FROM nowhere\nTEMPLATE: {results}"
		s := loadedSession(t, nil, WithGenerator(fixedGenerator(raw, nil)))

		_, err := s.Ask(ctx, "list items")
		require.ErrorIs(t, err, ErrExecution)
	})

	t.Run("strict render failure keeps the answer", func(t *testing.T) {
		t.Parallel()

		raw := "SQL: SELECT id FROM items\nTEMPLATE: Names: {name}"
		s := loadedSession(t, func(c *Config) { c.RenderPolicy = model.PolicyStrict },
			WithGenerator(fixedGenerator(raw, nil)))

		answer, err := s.Ask(ctx, "list items")
		require.ErrorIs(t, err, ErrRender)
		require.NotNil(t, answer)
		assert.Equal(t, "Names: {name}", answer.Text)
		assert.Equal(t, 3, answer.Result.Len())
	})
}
