package onboarding

type taskTemplate struct {
	Title       string
	Description string
	Required    bool
}

// onboardingTemplate is seeded in order; task_order is the 1-based index.
var onboardingTemplate = [...]taskTemplate{
	{
		Title:       "Complete your client profile",
		Description: "Add your company details, billing contact and primary point of contact.",
		Required:    true,
	},
	{
		Title:       "Sign the service agreement",
		Description: "Review and sign the master service agreement for your plan.",
		Required:    true,
	},
	{
		Title:       "Connect your analytics account",
		Description: "Grant read access to your analytics property so we can baseline results.",
		Required:    false,
	},
	{
		Title:       "Share brand assets and access",
		Description: "Upload logos, brand guidelines and credentials for the systems we will work in.",
		Required:    true,
	},
	{
		Title:       "Schedule the kickoff call",
		Description: "Pick a time for the kickoff call with your project manager.",
		Required:    true,
	},
}
