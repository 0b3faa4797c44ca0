package activities

import (
	"context"
	"sort"
)

// Flow runs after login on an already authenticated page.
type Flow func(ctx context.Context, env *Env) error

// Script is one runnable automation, addressable by key.
type Script struct {
	Key         string
	Name        string
	Role        Role
	Description string
	Run         Flow
}

// pending chains the pending-activity launcher with the activity's flow.
func pending(keyword string, flow Flow) Flow {
	return func(ctx context.Context, env *Env) error {
		if err := StartPendingActivity(ctx, env, keyword); err != nil {
			return err
		}
		return flow(ctx, env)
	}
}

func tour(tabs []string) Flow {
	return func(ctx context.Context, env *Env) error {
		return TourTabs(ctx, env, tabs)
	}
}

var registry = map[string]Script{}

func register(s Script) {
	if _, dup := registry[s.Key]; dup {
		panic("activities: duplicate script key " + s.Key)
	}
	registry[s.Key] = s
}

func init() {
	register(Script{Key: "student_spellingbee", Name: "Student Spelling Bee", Role: RoleStudent,
		Description: "Starts the pending spelling bee and answers three words.",
		Run:         pending(KeywordSpellingBee, SpellingBee)})
	register(Script{Key: "student_activepassive", Name: "Student Parts of Speech", Role: RoleStudent,
		Description: "Drags each highlighted word into the answer box until Try Again appears.",
		Run:         pending(KeywordPartsOfSpeech, PartsOfSpeech)})
	register(Script{Key: "student_currency", Name: "Student Currency", Role: RoleStudent,
		Description: "Starts the currency activity and checks the answer.",
		Run:         pending(KeywordCurrency, Currency)})
	register(Script{Key: "student_imagedescribe", Name: "Student Image Describe", Role: RoleStudent,
		Description: "Loads a new image and fills in every description field.",
		Run:         pending(KeywordImageDescribe, ImageDescribe)})
	register(Script{Key: "student_readrespond", Name: "Student Read and Respond", Role: RoleStudent,
		Description: "Answers passages until the score is shown.",
		Run:         pending(KeywordReadRespond, ReadRespond)})
	register(Script{Key: "student_science", Name: "Student Virtual Science Lab", Role: RoleStudent,
		Description: "Fills both lab experiments and completes the assignment.",
		Run:         pending(KeywordScienceLab, ScienceLab)})
	register(Script{Key: "student_storygen", Name: "Student Story Starter", Role: RoleStudent,
		Description: "Submits story parts until the story ends.",
		Run:         pending(KeywordStoryStarter, StoryStarter)})
	register(Script{Key: "student_tabs", Name: "Student Navigation Tabs", Role: RoleStudent,
		Description: "Clicks every student sidebar tab.",
		Run:         tour(StudentTabs)})
	register(Script{Key: "student_homework", Name: "Student Assignment Dashboard", Role: RoleStudent,
		Description: "Answers and submits the top pending homework.",
		Run:         StudentHomework})
	register(Script{Key: "teacher_tabs", Name: "Teacher Navigation Tabs", Role: RoleTeacher,
		Description: "Clicks every teacher sidebar tab.",
		Run:         tour(TeacherTabs)})
	register(Script{Key: "teacher_assignment", Name: "Teacher Assignment", Role: RoleTeacher,
		Description: "Creates and sends one assignment of the configured type.",
		Run:         TeacherAssignment})
	register(Script{Key: "teacher_assignment_all", Name: "Teacher Assignment All Types", Role: RoleTeacher,
		Description: "Creates a mixed assignment, then one assignment per question type.",
		Run:         TeacherAssignmentAll})
}

// Lookup returns the script registered under key.
func Lookup(key string) (Script, bool) {
	s, ok := registry[key]
	return s, ok
}

// Keys returns every registered key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every registered script ordered by key.
func All() []Script {
	keys := Keys()
	out := make([]Script, len(keys))
	for i, k := range keys {
		out[i] = registry[k]
	}
	return out
}
