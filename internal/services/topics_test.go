package services

import (
	"errors"
	"testing"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicPolicy_FilterFor(t *testing.T) {
	p := NewTopicPolicy([]TopicRule{
		{Name: "money", Keywords: []string{"Loan", " theft "}, StandardNumbers: []string{"1", "8"}},
		{Name: "sukuk", Keywords: []string{"sukuk"}, StandardNumbers: []string{"17", "8"}, SectionTitles: []string{"Definition of Sukuk"}},
		{Name: "empty", Keywords: []string{"  "}, StandardNumbers: []string{"99"}},
	})
	assert.Equal(t, 2, p.Rules())

	assert.Nil(t, p.FilterFor("What is Ijarah?"))

	f := p.FilterFor("Is a LOAN with interest allowed?")
	require.NotNil(t, f)
	assert.Equal(t, []string{"1", "8"}, f.StandardNumbers)
	assert.Empty(t, f.SectionTitles)

	f = p.FilterFor("loan backed sukuk")
	require.NotNil(t, f)
	assert.Equal(t, []string{"1", "8", "17"}, f.StandardNumbers)
	assert.Equal(t, []string{"Definition of Sukuk"}, f.SectionTitles)
}

func TestTopicPolicy_NilNeverFilters(t *testing.T) {
	var p *TopicPolicy
	assert.Nil(t, p.FilterFor("loan"))
	assert.Zero(t, p.Rules())
	assert.Nil(t, NewTopicPolicy(nil).FilterFor("loan"))
}

func TestTopicPolicyFromSource(t *testing.T) {
	src := &stubRuleSource{filters: []models.TopicFilter{{
		Name:            "money",
		Keywords:        models.StringArray{"loan"},
		StandardNumbers: models.StringArray{"1"},
		IsActive:        true,
	}}}

	p, err := TopicPolicyFromSource(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, p.FilterFor("loan terms").StandardNumbers)

	_, err = TopicPolicyFromSource(&stubRuleSource{err: errors.New("db down")})
	assert.Error(t, err)
}
