package firestore

import (
	"time"

	"github.com/pedalhub/automator/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get bool from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper to safely get int from map (Firestore numbers decode as int64 or float64)
func getInt(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Helper to safely get float from map
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]interface{}); ok {
			return mm
		}
	}
	return nil
}

func getSlice(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if s, ok := v.([]interface{}); ok {
			return s
		}
	}
	return nil
}

// --- User Converters ---

func gearToFirestore(items []types.GearItem) []map[string]interface{} {
	out := make([]map[string]interface{}, len(items))
	for i, g := range items {
		out[i] = map[string]interface{}{
			"id":      g.ID,
			"name":    g.Name,
			"primary": g.Primary,
		}
	}
	return out
}

func firestoreToGear(items []interface{}) []types.GearItem {
	out := make([]types.GearItem, 0, len(items))
	for _, raw := range items {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, types.GearItem{
			ID:      getString(m, "id"),
			Name:    getString(m, "name"),
			Primary: getBool(m, "primary"),
		})
	}
	return out
}

func recipeToFirestore(r *types.Recipe) map[string]interface{} {
	conditions := make([]map[string]interface{}, len(r.Conditions))
	for i, c := range r.Conditions {
		conditions[i] = map[string]interface{}{
			"property":       c.Property,
			"operator":       c.Operator,
			"value":          c.Value,
			"friendly_value": c.FriendlyValue,
		}
	}
	actions := make([]map[string]interface{}, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = map[string]interface{}{
			"type":           a.Type,
			"value":          a.Value,
			"friendly_value": a.FriendlyValue,
		}
	}
	return map[string]interface{}{
		"id":            r.ID,
		"title":         r.Title,
		"conditions":    conditions,
		"actions":       actions,
		"order":         r.Order,
		"default_for":   r.DefaultFor,
		"kill_switch":   r.KillSwitch,
		"trigger_count": r.TriggerCount,
	}
}

func firestoreToRecipe(m map[string]interface{}) *types.Recipe {
	r := &types.Recipe{
		ID:           getString(m, "id"),
		Title:        getString(m, "title"),
		Order:        int(getInt(m, "order")),
		DefaultFor:   getString(m, "default_for"),
		KillSwitch:   getBool(m, "kill_switch"),
		TriggerCount: getInt(m, "trigger_count"),
		Conditions:   []types.RecipeCondition{},
		Actions:      []types.RecipeAction{},
	}
	for _, raw := range getSlice(m, "conditions") {
		cm, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		r.Conditions = append(r.Conditions, types.RecipeCondition{
			Property:      getString(cm, "property"),
			Operator:      getString(cm, "operator"),
			Value:         getString(cm, "value"),
			FriendlyValue: getString(cm, "friendly_value"),
		})
	}
	for _, raw := range getSlice(m, "actions") {
		am, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		r.Actions = append(r.Actions, types.RecipeAction{
			Type:          getString(am, "type"),
			Value:         getString(am, "value"),
			FriendlyValue: getString(am, "friendly_value"),
		})
	}
	return r
}

func UserToFirestore(u *types.User) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":          u.ID,
		"display_name":     u.DisplayName,
		"tier":             u.Tier,
		"suspended":        u.Suspended,
		"writes_suspended": u.WritesSuspended,
		"ftp":              u.Ftp,
		"activity_count":   u.ActivityCount,
		"created_at":       u.CreatedAt,
		"preferences": map[string]interface{}{
			"privacy_mode":    u.Preferences.PrivacyMode,
			"ftp_auto_update": u.Preferences.FtpAutoUpdate,
		},
	}

	if len(u.Recipes) > 0 {
		recipes := make(map[string]interface{}, len(u.Recipes))
		for id, r := range u.Recipes {
			recipes[id] = recipeToFirestore(r)
		}
		m["recipes"] = recipes
	}
	if len(u.Bikes) > 0 {
		m["bikes"] = gearToFirestore(u.Bikes)
	}
	if len(u.Shoes) > 0 {
		m["shoes"] = gearToFirestore(u.Shoes)
	}
	if u.Strava != nil {
		m["strava"] = map[string]interface{}{
			"enabled":       u.Strava.Enabled,
			"athlete_id":    u.Strava.AthleteID,
			"access_token":  u.Strava.AccessToken,
			"refresh_token": u.Strava.RefreshToken,
			"expires_at":    u.Strava.ExpiresAt,
		}
	}
	return m
}

func FirestoreToUser(m map[string]interface{}) *types.User {
	u := &types.User{
		ID:              getString(m, "user_id"),
		DisplayName:     getString(m, "display_name"),
		Tier:            getString(m, "tier"),
		Suspended:       getBool(m, "suspended"),
		WritesSuspended: getBool(m, "writes_suspended"),
		Ftp:             int(getInt(m, "ftp")),
		ActivityCount:   getInt(m, "activity_count"),
		CreatedAt:       getTime(m, "created_at"),
		Recipes:         map[string]*types.Recipe{},
	}
	if prefs := getMap(m, "preferences"); prefs != nil {
		u.Preferences = types.UserPreferences{
			PrivacyMode:   getBool(prefs, "privacy_mode"),
			FtpAutoUpdate: getBool(prefs, "ftp_auto_update"),
		}
	}
	if recipes := getMap(m, "recipes"); recipes != nil {
		for id, raw := range recipes {
			rm, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			r := firestoreToRecipe(rm)
			if r.ID == "" {
				r.ID = id
			}
			u.Recipes[id] = r
		}
	}
	u.Bikes = firestoreToGear(getSlice(m, "bikes"))
	u.Shoes = firestoreToGear(getSlice(m, "shoes"))
	if strava := getMap(m, "strava"); strava != nil {
		u.Strava = &types.StravaIntegration{
			Enabled:      getBool(strava, "enabled"),
			AthleteID:    getInt(strava, "athlete_id"),
			AccessToken:  getString(strava, "access_token"),
			RefreshToken: getString(strava, "refresh_token"),
			ExpiresAt:    getTime(strava, "expires_at"),
		}
	}
	return u
}

// --- ProcessedActivity Converters ---

func ProcessedActivityToFirestore(p *types.ProcessedActivity) map[string]interface{} {
	m := map[string]interface{}{
		"id":      p.ID,
		"user_id": p.UserID,
	}

	// Queue-control fields are only written while the entry is queued.
	// Receipts are written with Replace, so omitting them here is what
	// removes them from the document.
	if !p.DateQueued.IsZero() {
		m["date_queued"] = p.DateQueued
		m["processing"] = p.Processing
		m["retry_count"] = p.RetryCount
		if p.Batch {
			m["batch"] = true
		}
		if p.QueueError != "" {
			m["queue_error"] = p.QueueError
		}
	}

	if !p.DateProcessed.IsZero() {
		m["date_processed"] = p.DateProcessed
	}
	if p.Name != "" {
		m["name"] = p.Name
	}
	if p.Type != "" {
		m["type"] = p.Type
	}
	if !p.DateStart.IsZero() {
		m["date_start"] = p.DateStart
	}
	if len(p.Recipes) > 0 {
		recipes := make(map[string]interface{}, len(p.Recipes))
		for id, s := range p.Recipes {
			recipes[id] = map[string]interface{}{
				"title":   s.Title,
				"summary": s.Summary,
			}
		}
		m["recipes"] = recipes
	}
	if len(p.UpdatedFields) > 0 {
		fields := make(map[string]interface{}, len(p.UpdatedFields))
		for k, v := range p.UpdatedFields {
			fields[k] = v
		}
		m["updated_fields"] = fields
	}
	if p.Error != "" {
		m["error"] = p.Error
	}
	return m
}

func FirestoreToProcessedActivity(m map[string]interface{}) *types.ProcessedActivity {
	p := &types.ProcessedActivity{
		ID:            getString(m, "id"),
		UserID:        getString(m, "user_id"),
		DateQueued:    getTime(m, "date_queued"),
		Processing:    getBool(m, "processing"),
		RetryCount:    int(getInt(m, "retry_count")),
		Batch:         getBool(m, "batch"),
		QueueError:    getString(m, "queue_error"),
		DateProcessed: getTime(m, "date_processed"),
		Name:          getString(m, "name"),
		Type:          getString(m, "type"),
		DateStart:     getTime(m, "date_start"),
		Error:         getString(m, "error"),
	}
	if recipes := getMap(m, "recipes"); recipes != nil {
		p.Recipes = map[string]*types.RecipeSummary{}
		for id, raw := range recipes {
			rm, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			p.Recipes[id] = &types.RecipeSummary{
				Title:   getString(rm, "title"),
				Summary: getString(rm, "summary"),
			}
		}
	}
	if fields := getMap(m, "updated_fields"); fields != nil {
		p.UpdatedFields = map[string]string{}
		for k, v := range fields {
			if s, ok := v.(string); ok {
				p.UpdatedFields[k] = s
			}
		}
	}
	return p
}
