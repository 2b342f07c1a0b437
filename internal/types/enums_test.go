package types

import "testing"

func TestNotificationIDsAreUnique(t *testing.T) {
	// Alert and alarm notification IDs share one OS-level namespace; any
	// collision would make one notification silently replace an unrelated one.
	seen := make(map[int]string)

	for _, at := range AllAlertTypes {
		id := at.NotificationID()
		if prev, ok := seen[id]; ok {
			t.Errorf("notification id %d shared by %s and %s", id, prev, at)
		}
		seen[id] = string(at)
	}
	for _, cat := range AllAlarmCategories {
		id := cat.NotificationID()
		if prev, ok := seen[id]; ok {
			t.Errorf("notification id %d shared by %s and %s", id, prev, cat)
		}
		seen[id] = string(cat)
	}
}

func TestCooldownKeysAreUnique(t *testing.T) {
	seen := make(map[string]AlertType)
	for _, at := range AllAlertTypes {
		key := at.CooldownKey()
		if key == "" {
			t.Errorf("%s: empty cooldown key", at)
		}
		if prev, ok := seen[key]; ok {
			t.Errorf("cooldown key %q shared by %s and %s", key, prev, at)
		}
		seen[key] = at
	}
}

func TestAlarmCategoryValid(t *testing.T) {
	for _, cat := range AllAlarmCategories {
		if !cat.Valid() {
			t.Errorf("%s must be valid", cat)
		}
	}
	if AlarmCategory("nap_time").Valid() {
		t.Error("unknown category must be invalid")
	}
}
