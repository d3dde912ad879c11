package encounterserver

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/encounter/internal/game/combat"
)

// errBadRequest marks malformed request payloads.
var errBadRequest = errors.New("bad request")

func stringField(in *structpb.Struct, key string) string {
	if in == nil {
		return ""
	}
	return in.GetFields()[key].GetStringValue()
}

func requireString(in *structpb.Struct, key string) (string, error) {
	v := stringField(in, key)
	if v == "" {
		return "", fmt.Errorf("%s is required: %w", key, errBadRequest)
	}
	return v, nil
}

func int64List(in *structpb.Struct, key string) ([]int64, error) {
	list := in.GetFields()[key].GetListValue()
	if list == nil {
		return nil, nil
	}
	out := make([]int64, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue != float64(int64(n.NumberValue)) || n.NumberValue <= 0 {
			return nil, fmt.Errorf("%s[%d] must be a positive integer: %w", key, i, errBadRequest)
		}
		out = append(out, int64(n.NumberValue))
	}
	return out, nil
}

// decodeAction builds a combat action from {kind, actor, target, ability}.
func decodeAction(in *structpb.Struct) (combat.Action, error) {
	if in == nil {
		return nil, fmt.Errorf("action is required: %w", errBadRequest)
	}
	actor, err := requireString(in, "actor")
	if err != nil {
		return nil, err
	}
	target := stringField(in, "target")
	ability := stringField(in, "ability")
	switch kind := stringField(in, "kind"); kind {
	case combat.ActionAttack.String():
		return combat.Attack{AttackerID: actor, TargetID: target}, nil
	case combat.ActionDefend.String():
		return combat.Defend{DefenderID: actor}, nil
	case combat.ActionCast.String():
		return combat.Cast{CasterID: actor, SpellID: ability, TargetID: target}, nil
	case combat.ActionUseItem.String():
		return combat.UseItem{UserID: actor, ItemID: ability, TargetID: target}, nil
	case combat.ActionFlee.String():
		return combat.Flee{FleerID: actor}, nil
	case combat.ActionPass.String():
		return combat.Pass{PasserID: actor}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q: %w", kind, errBadRequest)
	}
}

func encodeAttack(a *combat.AttackResult) map[string]any {
	return map[string]any{
		"roll":      a.Roll,
		"total":     a.Total,
		"target_ac": a.TargetAC,
		"outcome":   a.Outcome.String(),
		"damage":    a.EffectiveDamage(),
	}
}

func encodeResult(r combat.Result) map[string]any {
	out := map[string]any{
		"kind":     r.Kind.String(),
		"actor":    r.ActorID,
		"success":  r.Success,
		"rejected": r.Rejected,
		"fallback": r.Fallback,
		"message":  r.Message,
		"ended":    r.CombatEnded,
	}
	if len(r.TargetIDs) > 0 {
		out["targets"] = anyList(r.TargetIDs)
	}
	if r.HasDamage {
		out["damage"] = r.Damage
	}
	if r.Healing > 0 {
		out["healing"] = r.Healing
	}
	if r.Attack != nil {
		out["attack"] = encodeAttack(r.Attack)
	}
	if r.Err != nil {
		out["error"] = r.Err.Error()
	}
	if r.CombatEnded {
		out["winner"] = r.Winner.String()
	}
	if r.Verdict != nil {
		out["verdict"] = encodeVerdict(r.Verdict)
	}
	if len(r.AITurns) > 0 {
		turns := make([]any, len(r.AITurns))
		for i, t := range r.AITurns {
			turns[i] = encodeResult(t)
		}
		out["ai_turns"] = turns
	}
	return out
}

func encodeVerdict(v *combat.Verdict) map[string]any {
	casualties := make([]any, len(v.Casualties))
	for i, c := range v.Casualties {
		casualties[i] = map[string]any{"id": c.ID, "name": c.Name, "status": c.Status().String()}
	}
	escaped := func(es []combat.Escapee) []any {
		out := make([]any, len(es))
		for i, e := range es {
			out[i] = map[string]any{"id": e.Combatant.ID, "name": e.Combatant.Name, "side": e.Combatant.Side.String(), "turn": e.Turn}
		}
		return out
	}
	shares := make([]any, len(v.Rewards.Shares))
	for i, s := range v.Rewards.Shares {
		shares[i] = map[string]any{"id": s.CombatantID, "experience": s.Experience, "gold": s.Gold}
	}
	loot := make([]any, len(v.Rewards.Loot))
	for i, l := range v.Rewards.Loot {
		loot[i] = map[string]any{"item": l.ItemID, "instance": l.InstanceID, "quantity": l.Quantity}
	}
	return map[string]any{
		"id":         v.EncounterID,
		"kind":       v.Kind.String(),
		"winner":     v.Winner.String(),
		"turns":      v.Turns,
		"wave":       v.Waves.CurrentWave,
		"waves":      v.Waves.TotalWaves,
		"casualties": casualties,
		"escapees":   escaped(v.Escapees),
		"fled":       escaped(v.Fled),
		"experience": v.Rewards.Experience,
		"gold":       v.Rewards.Gold,
		"shares":     shares,
		"loot":       loot,
	}
}

func encodeView(c CombatantView) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"side":       c.Side,
		"status":     c.Status,
		"hp":         c.HP,
		"max_hp":     c.MaxHP,
		"initiative": c.Initiative,
		"health":     c.Health,
	}
}

func encodeSnapshot(s Snapshot) map[string]any {
	order := make([]any, len(s.Order))
	for i, c := range s.Order {
		order[i] = encodeView(c)
	}
	roster := make([]any, len(s.Roster))
	for i, c := range s.Roster {
		roster[i] = encodeView(c)
	}
	out := map[string]any{
		"session_id": s.ID,
		"state":      s.State,
		"turn":       s.Turn,
		"current":    s.CurrentID,
		"order":      order,
		"roster":     roster,
		"wave":       encodePartyInfo(s.Wave),
	}
	if s.Verdict != nil {
		out["verdict"] = encodeVerdict(s.Verdict)
	}
	return out
}

func encodePartyInfo(p combat.PartyInfo) map[string]any {
	return map[string]any{"current_wave": p.CurrentWave, "total_waves": p.TotalWaves}
}

func anyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
