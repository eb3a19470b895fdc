package cmd

import (
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()

	for _, path := range [][]string{
		{"auth", "login"},
		{"auth", "status"},
		{"auth", "logout"},
		{"config", "get"},
		{"config", "set"},
		{"catalog", "regions"},
		{"catalog", "plans"},
		{"catalog", "availability"},
		{"catalog", "os"},
		{"catalog", "snapshots"},
		{"instance", "list"},
		{"instance", "show"},
		{"instance", "create"},
		{"instance", "start"},
		{"instance", "stop"},
		{"instance", "reboot"},
		{"instance", "delete"},
		{"instance", "browse"},
		{"audit", "list"},
		{"audit", "prune"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Errorf("%v: %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("%v resolved to %q", path, cmd.Name())
		}
	}
}

func TestWaitFlags(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"create", "start", "stop", "delete"} {
		cmd, _, err := root.Find([]string{"instance", name})
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if cmd.Flags().Lookup("wait") == nil {
			t.Errorf("instance %s has no --wait flag", name)
		}
	}
	reboot, _, err := root.Find([]string{"instance", "reboot"})
	if err != nil {
		t.Fatalf("find reboot: %v", err)
	}
	if reboot.Flags().Lookup("wait") != nil {
		t.Error("instance reboot must not offer --wait")
	}
	for _, name := range []string{"create", "delete"} {
		cmd, _, _ := root.Find([]string{"instance", name})
		if cmd.Flags().Lookup("yes") == nil {
			t.Errorf("instance %s has no --yes flag", name)
		}
	}
}
