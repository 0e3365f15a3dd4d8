package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	weaver "github.com/puregrain/weavertools"
	"github.com/puregrain/weavertools/proxmox"
)

//go:embed plugin.yaml
var configYAML string

type proxmoxTool struct {
	weaver.BasePlugin

	mu  sync.Mutex
	inv *proxmox.Inventory
	log hclog.Logger
}

type params struct {
	Operation string `json:"operation"`
	Node      string `json:"node,omitempty"`
	NASOnly   bool   `json:"nas_only,omitempty"`
	Target    string `json:"target,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
}

type handlerFunc func(ctx context.Context, t *proxmoxTool, p params) *weaver.Result

var handlers = map[string]handlerFunc{
	"list_nodes":       handleListNodes,
	"node_status":      handleNodeStatus,
	"list_vms":         handleListVMs,
	"list_containers":  handleListContainers,
	"list_all_vms":     handleListAllVMs,
	"storage_summary":  handleStorageSummary,
	"historical_stats": handleHistoricalStats,
	"list_tasks":       handleListTasks,
	"list_users":       handleListUsers,
	"list_snapshots":   handleListSnapshots,
	"help":             handleHelp,
}

func (t *proxmoxTool) Call(ctx context.Context, args string) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(args), &raw); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	if err := t.ValidateCallParams(raw); err != nil {
		return weaver.ErrorResult(err.Error()).ToJSON()
	}

	var p params
	if err := json.Unmarshal([]byte(args), &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	handler, ok := handlers[p.Operation]
	if !ok {
		return weaver.Errorf("unknown operation: %s", p.Operation).ToJSON()
	}

	return handler(ctx, t, p).ToJSON()
}

// clusterConfig builds the connection config from valves, falling back to
// the stock defaults for anything unset.
func (t *proxmoxTool) clusterConfig() proxmox.Config {
	cfg := proxmox.DefaultConfig()

	valves := t.Valves()
	if valves == nil {
		return cfg
	}

	cfg.Host = weaver.ResolveString(valves, "", []string{"proxmox_host"}, cfg.Host)
	cfg.User = weaver.ResolveString(valves, "", []string{"proxmox_user"}, cfg.User)
	cfg.TokenID = weaver.ResolveString(valves, "", []string{"proxmox_token_id"}, cfg.TokenID)
	cfg.TokenSecret = weaver.ResolveString(valves, "", []string{"proxmox_token_secret"}, cfg.TokenSecret)
	if v, err := valves.GetBool("verify_ssl"); err == nil {
		cfg.VerifySSL = v
	}
	if ttl, err := valves.GetInt("cache_ttl"); err == nil && ttl > 0 {
		cfg.CacheTTL = time.Duration(ttl) * time.Second
	}

	return cfg
}

func (t *proxmoxTool) inventory() *proxmox.Inventory {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inv == nil {
		if t.log == nil {
			t.log = hclog.Default()
		}
		t.inv = proxmox.NewInventory(t.clusterConfig(), t.log)
	}
	return t.inv
}

// resetInventory drops the cached inventory so new valve settings take
// effect on the next call.
func (t *proxmoxTool) resetInventory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inv = nil
}

// InitializeWithConfig persists host-provided credentials to valves and
// rebuilds the API connection.
func (t *proxmoxTool) InitializeWithConfig(config map[string]interface{}) error {
	if err := t.ValidateConfig(config); err != nil {
		return err
	}

	valves := t.Valves()
	if valves == nil {
		return fmt.Errorf("no data directory available for valve storage")
	}
	for key, value := range config {
		if err := valves.Set(key, value); err != nil {
			return fmt.Errorf("failed to store valve %q: %w", key, err)
		}
	}

	t.resetInventory()
	return nil
}

// ValidateConfig checks that every required valve is present.
func (t *proxmoxTool) ValidateConfig(config map[string]interface{}) error {
	for _, variable := range t.GetRequiredConfig() {
		if !variable.Required {
			continue
		}
		value, ok := config[variable.Key]
		if !ok || value == nil || value == "" {
			return fmt.Errorf("required config %q is missing", variable.Key)
		}
	}
	return nil
}

// GetRequiredConfig exposes the valve descriptors from plugin.yaml.
func (t *proxmoxTool) GetRequiredConfig() []weaver.ConfigVariable {
	return t.GetConfigFromYAML()
}

func tableResult(title string, columns []string, rows []proxmox.Row) *weaver.Result {
	return weaver.TableResult(title, columns, rows)
}

func handleListNodes(ctx context.Context, t *proxmoxTool, _ params) *weaver.Result {
	rows, err := t.inventory().ListNodes(ctx)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("Cluster Nodes",
		[]string{"Node", "Status", "CPU Usage (%)", "Memory Usage (%)", "Disk Usage (%)"}, rows)
}

func handleNodeStatus(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().NodeStatus(ctx, p.Node)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult(fmt.Sprintf("Node %s", p.Node),
		[]string{"Node", "Uptime", "Load Average", "CPUs", "Memory Used (GB)", "Memory (GB)",
			"Memory (%)", "RootFS Used (GB)", "RootFS (GB)", "RootFS (%)", "PVE Version"}, rows)
}

var guestColumns = []string{"VMID", "Name", "Status", "Node", "Memory (GB)", "Uptime"}

func handleListVMs(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().ListVMs(ctx, p.Node)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("Virtual Machines", guestColumns, rows)
}

func handleListContainers(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().ListContainers(ctx, p.Node)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("Containers", guestColumns, rows)
}

func handleListAllVMs(ctx context.Context, t *proxmoxTool, _ params) *weaver.Result {
	rows, err := t.inventory().ListAllVMs(ctx)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("All Virtual Machines", guestColumns, rows)
}

func handleStorageSummary(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().StorageSummary(ctx, p.Node, p.NASOnly)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("Storage Summary",
		[]string{"Storage", "Type", "Total (GB)", "Used (GB)", "Available (GB)",
			"Usage (%)", "Snapshot Count", "NAS Devices Attached"}, rows)
}

func handleHistoricalStats(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().HistoricalStats(ctx, p.Target, p.TargetID, p.Node, p.Timeframe)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult(fmt.Sprintf("Historical Stats (%s %s)", p.Target, p.TargetID),
		[]string{"timestamp", "CPU", "Memory (MB)", "Disk (MB)"}, rows)
}

func handleListTasks(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().ListTasks(ctx, p.Node)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult(fmt.Sprintf("Tasks on %s", p.Node),
		[]string{"UPID", "Type", "Status", "User", "Started", "Ended"}, rows)
}

func handleListUsers(ctx context.Context, t *proxmoxTool, _ params) *weaver.Result {
	rows, err := t.inventory().ListUsers(ctx)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("API Users",
		[]string{"User", "Enabled", "Expires", "Comment"}, rows)
}

func handleListSnapshots(ctx context.Context, t *proxmoxTool, p params) *weaver.Result {
	rows, err := t.inventory().ListSnapshots(ctx, p.Node)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return tableResult("VM Snapshots",
		[]string{"Node", "VMID", "Snapshot", "Description", "Created"}, rows)
}

func handleHelp(_ context.Context, _ *proxmoxTool, _ params) *weaver.Result {
	return weaver.TextResult(proxmox.Help())
}

func main() {
	weaver.ServePlugin(&proxmoxTool{}, configYAML)
}
