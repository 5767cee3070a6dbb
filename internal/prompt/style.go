package prompt

// houseStyle is the Fluent design language every generated page follows.
const houseStyle = `FLUENT DESIGN RULES:
1. Colors:
   - Primary: #0078d4, primary dark: #106ebe, primary light: #deecf9
   - Backgrounds: #ffffff (primary), #faf9f8 (secondary), #f3f2f1 (tertiary)
   - Borders: #edebe9, #8a8886 (dark)
   - Text: #323130 (primary), #605e5c (secondary), #a19f9d (disabled)
   - Accents: #107c10 (success), #ffb900 (warning), #d13438 (error), #5c2d91 (purple)
2. Shadows:
   - fluent-2: 0 0 2px rgba(0,0,0,0.12), 0 1px 2px rgba(0,0,0,0.14)
   - fluent-4: 0 0 2px rgba(0,0,0,0.12), 0 2px 4px rgba(0,0,0,0.14)
   - fluent-8: 0 0 2px rgba(0,0,0,0.12), 0 4px 8px rgba(0,0,0,0.14)
   - fluent-16: 0 0 2px rgba(0,0,0,0.12), 0 8px 16px rgba(0,0,0,0.14)
3. Typography:
   - Font: Segoe UI, Inter, system-ui, sans-serif
   - Headings use font-semibold; keep a clear text hierarchy
4. Components:
   - Buttons are rounded with hover states
   - Cards: white background, soft shadow, rounded-lg corners
   - Inputs: border-fluent-border, focus:border-fluent-primary
   - Use transition-colors for smooth state changes
5. Layout:
   - Use flex and grid
   - Consistent spacing with gap-*, p-*, m-*
   - Responsive breakpoints (sm:, md:, lg:)
`

// houseStyleShort is the condensed rule set used when streaming a full
// regeneration.
const houseStyleShort = `FLUENT DESIGN RULES:
1. Colors: primary #0078d4, backgrounds #ffffff/#faf9f8/#f3f2f1, text #323130/#605e5c
2. Shadow fluent-4: 0 0 2px rgba(0,0,0,0.12), 0 2px 4px rgba(0,0,0,0.14)
3. Font: Segoe UI, Inter, system-ui
4. Components: rounded, with hover states and transition-colors
`
