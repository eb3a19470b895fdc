package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/charmbracelet/huh"
)

// SelectInstance prompts for one of instances and returns its id. When
// allow is non-nil, instances it rejects are left out.
func SelectInstance(title string, instances []domain.Instance, allow func(domain.Instance) bool) (string, error) {
	options := buildInstanceOptions(instances, allow)
	if len(options) == 0 {
		return "", errors.New("no instances available for this action")
	}

	var id string
	err := runForm(os.Getenv("ACCESSIBLE") != "", huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(options...).
			Value(&id).
			Height(selectHeight(len(options), 12)),
	))
	if err != nil {
		return "", err
	}
	return id, nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(title, description string) (bool, error) {
	ok := false
	field := huh.NewConfirm().Title(title).Value(&ok)
	if description != "" {
		field = field.Description(description)
	}
	if err := runForm(os.Getenv("ACCESSIBLE") != "", huh.NewGroup(field)); err != nil {
		return false, err
	}
	return ok, nil
}

func buildInstanceOptions(instances []domain.Instance, allow func(domain.Instance) bool) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(instances))
	for _, inst := range instances {
		if allow != nil && !allow(inst) {
			continue
		}
		options = append(options, huh.NewOption(InstanceLabel(inst), inst.ID))
	}
	return options
}

// InstanceLabel joins the non-empty identifying fields of inst.
func InstanceLabel(inst domain.Instance) string {
	name := inst.Label
	if name == "" {
		name = inst.ID
	}
	parts := []string{name}
	for _, p := range []string{string(inst.Status), inst.Plan, inst.MainIP, inst.Region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if inst.PendingCharges != nil {
		parts = append(parts, fmt.Sprintf("$%.2f pending", *inst.PendingCharges))
	}
	return strings.Join(parts, " - ")
}
