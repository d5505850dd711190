package recommend

// Intent is a named chatbot answer with its trigger phrases. Exactly one of
// Response or Responses is set; Responses are picked at random.
type Intent struct {
	Name      string
	Patterns  []string
	Response  string
	Responses []string
}

// DefaultIntents is the built-in knowledge base, in priority order.
func DefaultIntents() []Intent {
	return []Intent{
		{
			Name:     "library_hours",
			Patterns: []string{"timing", "hours", "open", "close", "time", "schedule"},
			Response: "Library Hours:\n" +
				"  Monday-Friday: 9:00 AM - 8:00 PM\n" +
				"  Saturday: 10:00 AM - 6:00 PM\n" +
				"  Sunday: 10:00 AM - 4:00 PM\n" +
				"  Holidays: Closed",
		},
		{
			Name:     "library_contact",
			Patterns: []string{"contact", "phone", "email", "address", "location", "reach"},
			Response: "Library Contact Information:\n" +
				"  Address: Rajiv Gandhi College Library, College Campus\n" +
				"  Phone: +91-XXX-XXX-XXXX\n" +
				"  Email: library@rgcollege.edu\n" +
				"  Librarian: Dr. S. Sharma",
		},
		{
			Name:     "membership",
			Patterns: []string{"membership", "join", "register", "sign up", "card", "id card"},
			Response: "Library Membership:\n" +
				"  Free for all college students\n" +
				"  Student ID required\n" +
				"  Can borrow up to 3 books at a time\n" +
				"  Membership valid for academic year",
		},
		{
			Name:     "rules",
			Patterns: []string{"rules", "policy", "regulation", "fine", "penalty", "late"},
			Response: "Library Rules:\n" +
				"  Borrowing period: 14 days\n" +
				"  Fine: Rs.5 per day after due date\n" +
				"  Maximum books: 3 per student\n" +
				"  Lost books: 2x book price\n" +
				"  No food/drinks allowed",
		},
		{
			Name:     "services",
			Patterns: []string{"service", "facility", "available", "what can i do", "offer"},
			Response: "Library Services:\n" +
				"  Book borrowing\n" +
				"  Reading room\n" +
				"  Computer access\n" +
				"  Printing/Photocopy\n" +
				"  Reference assistance\n" +
				"  Book recommendations\n" +
				"  E-resources access",
		},
		{
			Name:     "available_books",
			Patterns: []string{"available books", "which books are available", "books in stock", "what books do you have"},
			Response: "You can check available books by:\n" +
				"  1. Using the search command\n" +
				"  2. Listing all books\n" +
				"  3. Browsing the course catalog for subject-specific books\n\n" +
				"Currently we have books across: BCA, BSC, B.COM, BA, BBA",
		},
		{
			Name:     "popular_books",
			Patterns: []string{"popular books", "best books", "most read", "trending books", "famous books"},
			Response: "Popular Books in our library:\n" +
				"  Programming in C by E. Balagurusamy\n" +
				"  Financial Accounting by S.N. Maheshwari\n" +
				"  English Literature by William Shakespeare\n" +
				"  Software Engineering by Roger Pressman\n\n" +
				"Ask for recommendations for personalized suggestions!",
		},
		{
			Name:     "new_books",
			Patterns: []string{"new books", "recent arrivals", "latest books", "new arrivals"},
			Response: "New Arrivals (This Month):\n" +
				"  Python Programming by Mark Lutz\n" +
				"  Machine Learning by Tom Mitchell\n" +
				"  Cloud Computing by Rajkumar Buyya\n" +
				"  Digital Marketing by Philip Kotler",
		},
		{
			Name:     "help",
			Patterns: []string{"help", "what can you do", "features", "capabilities", "assist"},
			Response: "I can help you with:\n\n" +
				"Book information: find books by name or author, check availability, get recommendations.\n" +
				"Library information: timings and contact, rules and policies, membership details.\n" +
				"Assistance: course-based suggestions and the borrowing process.\n\n" +
				"Just ask me anything about the library!",
		},
		{
			Name:     "greeting",
			Patterns: []string{"hello", "hi", "hey", "good morning", "good afternoon", "greetings"},
			Responses: []string{
				"Hello! How can I assist you with the library today?",
				"Hi there! What would you like to know about our library?",
				"Greetings! I'm your library assistant. How can I help?",
				"Welcome to Rajiv Gandhi College Library! How may I assist you?",
			},
		},
		{
			Name:     "thanks",
			Patterns: []string{"thanks", "thank you", "appreciate", "grateful"},
			Responses: []string{
				"You're welcome! Let me know if you need anything else.",
				"Happy to help!",
				"Glad I could assist! Don't hesitate to ask if you have more questions.",
				"Anytime! Feel free to ask if you need more information.",
			},
		},
		{
			Name:     "bye",
			Patterns: []string{"bye", "goodbye", "see you", "exit", "quit"},
			Responses: []string{
				"Goodbye! Happy reading!",
				"See you soon!",
				"Take care! Don't forget to return your books on time!",
				"Goodbye! Visit the library soon!",
			},
		},
	}
}

// courseQueryWords maps chat words to the course they ask about.
var courseQueryWords = []struct {
	word   string
	course string
}{
	{"bca", "BCA"},
	{"bsc", "BSC"},
	{"bcom", "B.COM"},
	{"ba", "BA"},
	{"bba", "BBA"},
	{"computer", "BCA"},
	{"science", "BSC"},
	{"commerce", "B.COM"},
	{"arts", "BA"},
	{"business", "BBA"},
}

type keywordRule struct {
	kind     string
	phrases  []string
	response string
}

// keywordChain runs after intent matching fails. Order matters. The fines
// entry is answered live so its response is empty here.
var keywordChain = []keywordRule{
	{
		kind:    "availability",
		phrases: []string{"available", "in stock", "have you got", "do you have"},
		response: "To check book availability:\n" +
			"  1. Search for the book by name or author\n" +
			"  2. Check its status in the results\n\n" +
			"Note: All books have 10 fixed copies. Quantity doesn't change when issued/returned.",
	},
	{
		kind:    "borrowing",
		phrases: []string{"borrow", "issue", "lend", "take book", "get book"},
		response: "How to borrow a book:\n" +
			"  1. Search for the book\n" +
			"  2. Note its book ID\n" +
			"  3. Ask the librarian to issue it against your student ID\n\n" +
			"Note: Book quantity is fixed at 10 copies. It doesn't decrease when issued.",
	},
	{
		kind:    "returning",
		phrases: []string{"return", "give back", "submit"},
		response: "Book Return Process:\n" +
			"  1. Bring the book to the desk\n" +
			"  2. The librarian records the return\n" +
			"  3. Any fines are calculated automatically\n\n" +
			"Late returns incur Rs.5 per day fine.",
	},
	{
		kind:    "fines",
		phrases: []string{"fine", "penalty", "late fee", "charge"},
	},
}

var fallbackSuggestions = []string{
	"Try asking about:\n  Library timings and contact\n  Book availability\n  Borrowing rules\n  Course-specific books\n  New arrivals",
	"I can help with:\n  Finding books\n  Library information\n  Borrowing process\n  Book recommendations\n  Fine details",
	"Need help? Try:\n  'What are the library hours?'\n  'How do I borrow a book?'\n  'Show me BCA books'\n  'What is the fine for late return?'",
}
